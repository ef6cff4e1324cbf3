package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"github.com/xuri/excelize/v2"
)

// WorkOrderService 工单服务（含财务审批与导出）
type WorkOrderService struct {
	woRepo       *repository.WorkOrderRepository
	approvalRepo *repository.ApprovalRepository
	detailRepo   *repository.DetailRepository
	logRepo      *repository.OperationLogRepository
}

// NewWorkOrderService 创建工单服务
func NewWorkOrderService(
	woRepo *repository.WorkOrderRepository,
	approvalRepo *repository.ApprovalRepository,
	detailRepo *repository.DetailRepository,
	logRepo *repository.OperationLogRepository,
) *WorkOrderService {
	return &WorkOrderService{
		woRepo:       woRepo,
		approvalRepo: approvalRepo,
		detailRepo:   detailRepo,
		logRepo:      logRepo,
	}
}

// CreateWorkOrderRequest 创建工单请求
type CreateWorkOrderRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	OwnerID     string     `json:"owner_id"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateWorkOrderRequest 更新工单请求
type UpdateWorkOrderRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	OwnerID     string     `json:"owner_id"`
	StartDate   *time.Time `json:"start_date"`
	DueDate     *time.Time `json:"due_date"`
}

// WorkOrderListResult 工单列表结果
type WorkOrderListResult struct {
	Items      []entity.WorkOrder `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// Create 创建工单
func (s *WorkOrderService) Create(ctx context.Context, userID string, req *CreateWorkOrderRequest) (*entity.WorkOrder, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	code, err := s.woRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	wo := &entity.WorkOrder{
		ID:          uuid.New().String()[:32],
		Code:        code,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      entity.WorkOrderStatusDraft,
		Priority:    priority,
		OwnerID:     req.OwnerID,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		CreatedBy:   userID,
	}
	if err := s.woRepo.Create(ctx, wo); err != nil {
		return nil, fmt.Errorf("create work order: %w", err)
	}
	return wo, nil
}

// Get 获取工单详情
func (s *WorkOrderService) Get(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return s.woRepo.FindByID(ctx, id)
}

// List 获取工单列表
func (s *WorkOrderService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) (*WorkOrderListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	orders, total, err := s.woRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &WorkOrderListResult{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update 更新工单基本信息
func (s *WorkOrderService) Update(ctx context.Context, id string, req *UpdateWorkOrderRequest) (*entity.WorkOrder, error) {
	wo, err := s.woRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		wo.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		wo.Description = req.Description
	}
	if req.Priority != "" {
		wo.Priority = req.Priority
	}
	if req.OwnerID != "" {
		wo.OwnerID = req.OwnerID
	}
	if req.StartDate != nil {
		wo.StartDate = req.StartDate
	}
	if req.DueDate != nil {
		wo.DueDate = req.DueDate
	}

	if err := s.woRepo.Update(ctx, wo); err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	return wo, nil
}

// UpdateStatus 更新工单状态
func (s *WorkOrderService) UpdateStatus(ctx context.Context, id, status string) error {
	valid := map[string]bool{
		entity.WorkOrderStatusDraft:      true,
		entity.WorkOrderStatusInProgress: true,
		entity.WorkOrderStatusCompleted:  true,
		entity.WorkOrderStatusClosed:     true,
	}
	if !valid[status] {
		return fmt.Errorf("%w: invalid work order status %q", ErrValidation, status)
	}
	return s.woRepo.UpdateStatus(ctx, id, status)
}

// Delete 软删除工单
func (s *WorkOrderService) Delete(ctx context.Context, id string) error {
	if _, err := s.woRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.woRepo.Delete(ctx, id)
}

// SubmitApprovalRequest 提交审批请求
type SubmitApprovalRequest struct {
	Amount  *float64 `json:"amount"`
	Remarks string   `json:"remarks"`
}

// SubmitForApproval 提交工单财务审批
func (s *WorkOrderService) SubmitForApproval(ctx context.Context, workOrderID, userID string, req *SubmitApprovalRequest) (*entity.FinanceApproval, error) {
	if _, err := s.woRepo.FindByID(ctx, workOrderID); err != nil {
		return nil, err
	}
	// 待审批记录本身是去重依据，不依赖工单状态字段
	if _, err := s.approvalRepo.FindPendingByWorkOrder(ctx, workOrderID); err == nil {
		return nil, fmt.Errorf("%w: work order already pending approval", ErrValidation)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check pending approval: %w", err)
	}

	approval := &entity.FinanceApproval{
		ID:          uuid.New().String()[:32],
		WorkOrderID: workOrderID,
		Status:      entity.ApprovalStatusPending,
		Amount:      req.Amount,
		Remarks:     req.Remarks,
		RequestedBy: userID,
	}
	if err := s.approvalRepo.Create(ctx, approval); err != nil {
		return nil, fmt.Errorf("create approval: %w", err)
	}
	if err := s.woRepo.UpdateStatus(ctx, workOrderID, entity.WorkOrderStatusPendingApproval); err != nil {
		return nil, fmt.Errorf("update work order status: %w", err)
	}

	s.appendLog(ctx, userID, entity.ActionSubmitApproval, workOrderID, map[string]interface{}{
		"approval_id": approval.ID,
	})
	return approval, nil
}

// Approve 审批通过
func (s *WorkOrderService) Approve(ctx context.Context, approvalID, userID string) (*entity.FinanceApproval, error) {
	approval, err := s.approvalRepo.FindByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if approval.Status != entity.ApprovalStatusPending {
		return nil, fmt.Errorf("%w: approval already decided", ErrValidation)
	}
	if approval.RequestedBy == userID {
		return nil, fmt.Errorf("%w: requester cannot approve own request", ErrPermissionDenied)
	}

	now := time.Now()
	approval.Status = entity.ApprovalStatusApproved
	approval.DecidedBy = userID
	approval.DecidedAt = &now
	if err := s.approvalRepo.Update(ctx, approval); err != nil {
		return nil, fmt.Errorf("update approval: %w", err)
	}
	if err := s.woRepo.UpdateStatus(ctx, approval.WorkOrderID, entity.WorkOrderStatusApproved); err != nil {
		return nil, fmt.Errorf("update work order status: %w", err)
	}

	s.appendLog(ctx, userID, entity.ActionApprove, approval.WorkOrderID, map[string]interface{}{
		"approval_id": approvalID,
	})
	return approval, nil
}

// Reject 审批驳回。驳回原因不少于20个字符。
func (s *WorkOrderService) Reject(ctx context.Context, approvalID, userID, reason string) (*entity.FinanceApproval, error) {
	if len(strings.TrimSpace(reason)) < 20 {
		return nil, fmt.Errorf("%w: rejection reason must be at least 20 characters", ErrValidation)
	}

	approval, err := s.approvalRepo.FindByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if approval.Status != entity.ApprovalStatusPending {
		return nil, fmt.Errorf("%w: approval already decided", ErrValidation)
	}
	if approval.RequestedBy == userID {
		return nil, fmt.Errorf("%w: requester cannot reject own request", ErrPermissionDenied)
	}

	now := time.Now()
	approval.Status = entity.ApprovalStatusRejected
	approval.RejectReason = strings.TrimSpace(reason)
	approval.DecidedBy = userID
	approval.DecidedAt = &now
	if err := s.approvalRepo.Update(ctx, approval); err != nil {
		return nil, fmt.Errorf("update approval: %w", err)
	}
	if err := s.woRepo.UpdateStatus(ctx, approval.WorkOrderID, entity.WorkOrderStatusRejected); err != nil {
		return nil, fmt.Errorf("update work order status: %w", err)
	}

	s.appendLog(ctx, userID, entity.ActionReject, approval.WorkOrderID, map[string]interface{}{
		"approval_id": approvalID,
		"reason":      approval.RejectReason,
	})
	return approval, nil
}

// ListApprovals 获取工单审批历史
func (s *WorkOrderService) ListApprovals(ctx context.Context, workOrderID string) ([]entity.FinanceApproval, error) {
	return s.approvalRepo.ListByWorkOrder(ctx, workOrderID)
}

var detailExportHeaders = []string{
	"Type", "Code", "Description", "Quantity", "Unit", "Allocated", "Remaining", "Remarks",
}

// ExportDetails 导出工单明细为Excel（物料与规格各一部分，含分配统计）
func (s *WorkOrderService) ExportDetails(ctx context.Context, workOrderID string) (*excelize.File, string, error) {
	wo, err := s.woRepo.FindByID(ctx, workOrderID)
	if err != nil {
		return nil, "", fmt.Errorf("work order not found: %w", err)
	}

	items, err := s.detailRepo.ListItemsByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, "", fmt.Errorf("list items: %w", err)
	}
	specs, err := s.detailRepo.ListSpecsByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, "", fmt.Errorf("list specs: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Details"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// 写入表头
	for i, h := range detailExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	for _, item := range items {
		code, desc := "", ""
		if item.ItemMaster != nil {
			code, desc = item.ItemMaster.Code, item.ItemMaster.Description
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Item")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), code)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), desc)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.AllocatedQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.Quantity-item.AllocatedQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.Remarks)
		row++
	}
	for _, spec := range specs {
		code, desc := "", ""
		if spec.SpecMaster != nil {
			code, desc = spec.SpecMaster.Code, spec.SpecMaster.Description
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Spec")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), code)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), desc)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), spec.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), spec.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), spec.AllocatedQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), spec.Quantity-spec.AllocatedQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), spec.Remarks)
		row++
	}

	fileName := fmt.Sprintf("%s-details.xlsx", wo.Code)
	return f, fileName, nil
}

// ListHistory 获取工单审计历史
func (s *WorkOrderService) ListHistory(ctx context.Context, workOrderID string, limit int) ([]entity.OperationLog, error) {
	return s.logRepo.ListByEntity(ctx, "work_order", workOrderID, limit)
}

func (s *WorkOrderService) appendLog(ctx context.Context, userID, action, workOrderID string, detail map[string]interface{}) {
	raw, _ := json.Marshal(detail)
	s.logRepo.Create(ctx, &entity.OperationLog{
		ID:         uuid.New().String()[:32],
		UserID:     userID,
		Action:     action,
		EntityType: "work_order",
		EntityID:   workOrderID,
		Detail:     raw,
	})
}
