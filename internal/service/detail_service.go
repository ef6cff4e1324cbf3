package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"gorm.io/gorm"
)

// DetailService 工单明细与分配台账服务。
// 容量判定全部走明细行上的条件UPDATE（见DetailRepository.Reserve/Release），
// 台账行写入与容量变更在同一事务内提交。
type DetailService struct {
	detailRepo *repository.DetailRepository
	allocRepo  *repository.AllocationRepository
	itemRepo   *repository.ItemMasterRepository
	specRepo   *repository.SpecMasterRepository
	logRepo    *repository.OperationLogRepository
}

// NewDetailService 创建明细服务
func NewDetailService(
	detailRepo *repository.DetailRepository,
	allocRepo *repository.AllocationRepository,
	itemRepo *repository.ItemMasterRepository,
	specRepo *repository.SpecMasterRepository,
	logRepo *repository.OperationLogRepository,
) *DetailService {
	return &DetailService{
		detailRepo: detailRepo,
		allocRepo:  allocRepo,
		itemRepo:   itemRepo,
		specRepo:   specRepo,
		logRepo:    logRepo,
	}
}

// AddItemRequest 添加物料明细请求
type AddItemRequest struct {
	ItemMasterID string  `json:"item_master_id" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required"`
	Unit         string  `json:"unit"`
	Remarks      string  `json:"remarks"`
}

// AddSpecRequest 添加规格明细请求
type AddSpecRequest struct {
	SpecMasterID string  `json:"spec_master_id" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required"`
	Unit         string  `json:"unit"`
	Remarks      string  `json:"remarks"`
}

// AllocateRequest 分配请求
type AllocateRequest struct {
	DetailType     string  `json:"detail_type" binding:"required"`
	DetailID       string  `json:"detail_id" binding:"required"`
	WorkflowStepID string  `json:"workflow_step_id" binding:"required"`
	Quantity       float64 `json:"quantity" binding:"required"`
}

// AddItem 向工单添加物料明细
func (s *DetailService) AddItem(ctx context.Context, workOrderID, userID string, req *AddItemRequest) (*entity.WorkOrderItem, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	master, err := s.itemRepo.FindByID(ctx, req.ItemMasterID)
	if err != nil {
		return nil, fmt.Errorf("find item master: %w", err)
	}
	if !master.IsActive {
		return nil, fmt.Errorf("%w: item %s is disabled", ErrValidation, master.Code)
	}

	unit := req.Unit
	if unit == "" {
		unit = master.Unit
	}
	item := &entity.WorkOrderItem{
		ID:           uuid.New().String()[:32],
		WorkOrderID:  workOrderID,
		ItemMasterID: master.ID,
		Quantity:     req.Quantity,
		Unit:         unit,
		Remarks:      req.Remarks,
		AddedBy:      userID,
	}
	if err := s.detailRepo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create work order item: %w", err)
	}
	item.ItemMaster = master
	item.RemainingQuantity = item.Quantity
	return item, nil
}

// AddSpec 向工单添加规格明细
func (s *DetailService) AddSpec(ctx context.Context, workOrderID, userID string, req *AddSpecRequest) (*entity.WorkOrderSpec, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	master, err := s.specRepo.FindByID(ctx, req.SpecMasterID)
	if err != nil {
		return nil, fmt.Errorf("find spec master: %w", err)
	}
	if !master.IsActive {
		return nil, fmt.Errorf("%w: spec %s is disabled", ErrValidation, master.Code)
	}

	unit := req.Unit
	if unit == "" {
		unit = master.Unit
	}
	spec := &entity.WorkOrderSpec{
		ID:           uuid.New().String()[:32],
		WorkOrderID:  workOrderID,
		SpecMasterID: master.ID,
		Quantity:     req.Quantity,
		Unit:         unit,
		Remarks:      req.Remarks,
		AddedBy:      userID,
	}
	if err := s.detailRepo.CreateSpec(ctx, spec); err != nil {
		return nil, fmt.Errorf("create work order spec: %w", err)
	}
	spec.SpecMaster = master
	spec.RemainingQuantity = spec.Quantity
	return spec, nil
}

// Allocate 把明细的部分数量分配到一个工作流步骤。
// 事务内先条件预留容量再写台账行；容量不足时整个事务回滚，
// 并发请求最多只有恰好用尽容量的那部分成功。
func (s *DetailService) Allocate(ctx context.Context, workOrderID, userID string, req *AllocateRequest) (*entity.Allocation, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: allocation quantity must be positive", ErrValidation)
	}
	if req.DetailType != entity.DetailTypeItem && req.DetailType != entity.DetailTypeSpec {
		return nil, fmt.Errorf("%w: invalid detail type %q", ErrValidation, req.DetailType)
	}

	alloc := &entity.Allocation{
		ID:                uuid.New().String()[:32],
		WorkOrderID:       workOrderID,
		DetailType:        req.DetailType,
		DetailID:          req.DetailID,
		WorkflowStepID:    req.WorkflowStepID,
		AllocatedQuantity: req.Quantity,
		AllocatedBy:       userID,
	}

	err := s.detailRepo.DB().Transaction(func(tx *gorm.DB) error {
		owner, err := s.detailRepo.WorkOrderIDOf(ctx, tx, req.DetailType, req.DetailID)
		if err != nil {
			return err
		}
		if owner != workOrderID {
			return fmt.Errorf("%w: detail does not belong to work order %s", ErrValidation, workOrderID)
		}
		if err := s.detailRepo.Reserve(ctx, tx, req.DetailType, req.DetailID, req.Quantity); err != nil {
			return err
		}
		if err := s.allocRepo.Create(ctx, tx, alloc); err != nil {
			return err
		}
		return s.logRepo.CreateTx(ctx, tx, s.buildLog(userID, entity.ActionAllocate, req.DetailType, req.DetailID, map[string]interface{}{
			"allocation_id": alloc.ID,
			"step_id":       req.WorkflowStepID,
			"quantity":      req.Quantity,
		}))
	})
	if err != nil {
		return nil, err
	}
	return alloc, nil
}

// UpdateAllocation 调整分配量。分配行在事务内加行锁重读，
// 差额基于锁定后的当前值计算并通过同样的条件预留/释放处理，
// 调大时同样受明细剩余容量约束（不提供绕过上限的编辑通道）。
func (s *DetailService) UpdateAllocation(ctx context.Context, allocationID, userID string, newQuantity float64) (*entity.Allocation, error) {
	if newQuantity <= 0 {
		return nil, fmt.Errorf("%w: allocation quantity must be positive", ErrValidation)
	}

	var alloc *entity.Allocation
	err := s.detailRepo.DB().Transaction(func(tx *gorm.DB) error {
		var err error
		alloc, err = s.allocRepo.FindByIDForUpdate(ctx, tx, allocationID)
		if err != nil {
			return err
		}
		oldQuantity := alloc.AllocatedQuantity
		delta := newQuantity - oldQuantity
		if delta == 0 {
			return nil
		}

		if delta > 0 {
			if err := s.detailRepo.Reserve(ctx, tx, alloc.DetailType, alloc.DetailID, delta); err != nil {
				return err
			}
		} else {
			if err := s.detailRepo.Release(ctx, tx, alloc.DetailType, alloc.DetailID, -delta); err != nil {
				return err
			}
		}
		if err := s.allocRepo.UpdateQuantity(ctx, tx, allocationID, newQuantity); err != nil {
			return err
		}
		return s.logRepo.CreateTx(ctx, tx, s.buildLog(userID, entity.ActionUpdateAlloc, alloc.DetailType, alloc.DetailID, map[string]interface{}{
			"allocation_id": allocationID,
			"old_quantity":  oldQuantity,
			"new_quantity":  newQuantity,
		}))
	})
	if err != nil {
		return nil, err
	}
	alloc.AllocatedQuantity = newQuantity
	return alloc, nil
}

// DeleteAllocation 删除分配行并把容量还给明细。
// 释放量取自事务内加锁读到的当前值，不受并发调整影响。
func (s *DetailService) DeleteAllocation(ctx context.Context, allocationID, userID string) error {
	return s.detailRepo.DB().Transaction(func(tx *gorm.DB) error {
		alloc, err := s.allocRepo.FindByIDForUpdate(ctx, tx, allocationID)
		if err != nil {
			return err
		}
		if err := s.allocRepo.Delete(ctx, tx, allocationID); err != nil {
			return err
		}
		if err := s.detailRepo.Release(ctx, tx, alloc.DetailType, alloc.DetailID, alloc.AllocatedQuantity); err != nil {
			return err
		}
		return s.logRepo.CreateTx(ctx, tx, s.buildLog(userID, entity.ActionReleaseAlloc, alloc.DetailType, alloc.DetailID, map[string]interface{}{
			"allocation_id": allocationID,
			"quantity":      alloc.AllocatedQuantity,
		}))
	})
}

// DeleteDetail 删除明细。仍有分配时返回ErrHasAllocations，
// 判定与删除在同一条SQL内完成。
func (s *DetailService) DeleteDetail(ctx context.Context, detailType, detailID string) error {
	if detailType != entity.DetailTypeItem && detailType != entity.DetailTypeSpec {
		return fmt.Errorf("%w: invalid detail type %q", ErrValidation, detailType)
	}
	return s.detailRepo.DeleteIfUnallocated(ctx, detailType, detailID)
}

// ItemDetailView 物料明细视图（含分配行）
type ItemDetailView struct {
	entity.WorkOrderItem
	Allocations []entity.Allocation `json:"allocations"`
}

// SpecDetailView 规格明细视图（含分配行）
type SpecDetailView struct {
	entity.WorkOrderSpec
	Allocations []entity.Allocation `json:"allocations"`
}

// GetItemDetailsByWorkOrder 获取工单物料明细视图，附带分配行与剩余量
func (s *DetailService) GetItemDetailsByWorkOrder(ctx context.Context, workOrderID string) ([]ItemDetailView, error) {
	items, err := s.detailRepo.ListItemsByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list work order items: %w", err)
	}

	allocs, err := s.allocRepo.ListByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	byDetail := groupAllocations(allocs, entity.DetailTypeItem)

	views := make([]ItemDetailView, 0, len(items))
	for _, item := range items {
		item.RemainingQuantity = item.Quantity - item.AllocatedQuantity
		views = append(views, ItemDetailView{
			WorkOrderItem: item,
			Allocations:   byDetail[item.ID],
		})
	}
	return views, nil
}

// GetSpecDetailsByWorkOrder 获取工单规格明细视图，附带分配行与剩余量
func (s *DetailService) GetSpecDetailsByWorkOrder(ctx context.Context, workOrderID string) ([]SpecDetailView, error) {
	specs, err := s.detailRepo.ListSpecsByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list work order specs: %w", err)
	}

	allocs, err := s.allocRepo.ListByWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	byDetail := groupAllocations(allocs, entity.DetailTypeSpec)

	views := make([]SpecDetailView, 0, len(specs))
	for _, spec := range specs {
		spec.RemainingQuantity = spec.Quantity - spec.AllocatedQuantity
		views = append(views, SpecDetailView{
			WorkOrderSpec: spec,
			Allocations:   byDetail[spec.ID],
		})
	}
	return views, nil
}

// ListAllocationsByStep 获取某个步骤收到的分配行
func (s *DetailService) ListAllocationsByStep(ctx context.Context, stepID string) ([]entity.Allocation, error) {
	return s.allocRepo.ListByStep(ctx, stepID)
}

// ListAllocationsByDetail 获取某个明细的全部分配行
func (s *DetailService) ListAllocationsByDetail(ctx context.Context, detailType, detailID string) ([]entity.Allocation, error) {
	if detailType != entity.DetailTypeItem && detailType != entity.DetailTypeSpec {
		return nil, fmt.Errorf("%w: invalid detail type %q", ErrValidation, detailType)
	}
	return s.allocRepo.ListByDetail(ctx, detailType, detailID)
}

func groupAllocations(allocs []entity.Allocation, detailType string) map[string][]entity.Allocation {
	byDetail := make(map[string][]entity.Allocation)
	for _, a := range allocs {
		if a.DetailType == detailType {
			byDetail[a.DetailID] = append(byDetail[a.DetailID], a)
		}
	}
	return byDetail
}

func (s *DetailService) buildLog(userID, action, detailType, detailID string, detail map[string]interface{}) *entity.OperationLog {
	detail["detail_type"] = detailType
	raw, _ := json.Marshal(detail)
	return &entity.OperationLog{
		ID:         uuid.New().String()[:32],
		UserID:     userID,
		Action:     action,
		EntityType: "detail",
		EntityID:   detailID,
		Detail:     raw,
	}
}
