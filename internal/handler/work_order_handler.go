package handler

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vinuthas0102/WO-Module-sub004/internal/service"
)

// WorkOrderHandler 工单处理器（含财务审批与导出）
type WorkOrderHandler struct {
	svc *service.WorkOrderService
}

// NewWorkOrderHandler 创建工单处理器
func NewWorkOrderHandler(svc *service.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{svc: svc}
}

// Create 创建工单
// POST /api/v1/work-orders
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var req service.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	wo, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, wo)
}

// List 获取工单列表
// GET /api/v1/work-orders?page=1&page_size=20&status=draft&keyword=xxx
func (h *WorkOrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	filters := make(map[string]interface{})
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if ownerID := c.Query("owner_id"); ownerID != "" {
		filters["owner_id"] = ownerID
	}
	if keyword := c.Query("keyword"); keyword != "" {
		filters["keyword"] = keyword
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取工单列表失败: "+err.Error())
		return
	}
	Success(c, ListResponse{
		Items: result.Items,
		Pagination: &Pagination{
			Page:       result.Page,
			PageSize:   result.PageSize,
			Total:      int(result.Total),
			TotalPages: result.TotalPages,
		},
	})
}

// Get 获取工单详情
// GET /api/v1/work-orders/:id
func (h *WorkOrderHandler) Get(c *gin.Context) {
	wo, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// Update 更新工单基本信息
// PUT /api/v1/work-orders/:id
func (h *WorkOrderHandler) Update(c *gin.Context) {
	var req service.UpdateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	wo, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, wo)
}

// UpdateStatus 更新工单状态
// PUT /api/v1/work-orders/:id/status
func (h *WorkOrderHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "updated"})
}

// Delete 软删除工单
// DELETE /api/v1/work-orders/:id
func (h *WorkOrderHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// SubmitApproval 提交工单财务审批
// POST /api/v1/work-orders/:id/approvals
func (h *WorkOrderHandler) SubmitApproval(c *gin.Context) {
	var req service.SubmitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	approval, err := h.svc.SubmitForApproval(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, approval)
}

// ListApprovals 获取工单审批历史
// GET /api/v1/work-orders/:id/approvals
func (h *WorkOrderHandler) ListApprovals(c *gin.Context) {
	approvals, err := h.svc.ListApprovals(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取审批历史失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": approvals})
}

// Approve 审批通过
// POST /api/v1/approvals/:id/approve
func (h *WorkOrderHandler) Approve(c *gin.Context) {
	approval, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, approval)
}

// Reject 审批驳回（原因不少于20字符）
// POST /api/v1/approvals/:id/reject
func (h *WorkOrderHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	approval, err := h.svc.Reject(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, approval)
}

// ExportDetails 导出工单明细为Excel
// GET /api/v1/work-orders/:id/export
func (h *WorkOrderHandler) ExportDetails(c *gin.Context) {
	f, fileName, err := h.svc.ExportDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", url.PathEscape(fileName)))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "导出失败: "+err.Error())
	}
}

// ListHistory 获取工单审计历史
// GET /api/v1/work-orders/:id/history?limit=50
func (h *WorkOrderHandler) ListHistory(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	logs, err := h.svc.ListHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		InternalError(c, "获取操作历史失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": logs})
}
