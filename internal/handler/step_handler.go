package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vinuthas0102/WO-Module-sub004/internal/service"
)

// StepHandler 工作流步骤处理器
type StepHandler struct {
	svc *service.StepService
}

// NewStepHandler 创建步骤处理器
func NewStepHandler(svc *service.StepService) *StepHandler {
	return &StepHandler{svc: svc}
}

// Create 创建单个步骤
// POST /api/v1/work-orders/:id/steps
func (h *StepHandler) Create(c *gin.Context) {
	var req service.CreateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	step, err := h.svc.Create(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, step)
}

// BulkCreate 批量创建步骤，逐行返回成败
// POST /api/v1/work-orders/:id/steps/bulk
func (h *StepHandler) BulkCreate(c *gin.Context) {
	var req struct {
		Steps []service.CreateStepRequest `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if len(req.Steps) == 0 {
		BadRequest(c, "步骤列表不能为空")
		return
	}

	result := h.svc.BulkCreate(c.Request.Context(), c.Param("id"), GetUserID(c), req.Steps)
	Success(c, result)
}

// List 获取工单的步骤树
// GET /api/v1/work-orders/:id/steps
func (h *StepHandler) List(c *gin.Context) {
	steps, err := h.svc.ListByWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取步骤列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": steps})
}

// Get 获取步骤详情
// GET /api/v1/steps/:id
func (h *StepHandler) Get(c *gin.Context) {
	step, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, step)
}

// Update 更新步骤基本信息
// PUT /api/v1/steps/:id
func (h *StepHandler) Update(c *gin.Context) {
	var req service.CreateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	step, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, step)
}

// UpdateStatus 更新步骤状态（依赖未满足时拒绝）
// PUT /api/v1/steps/:id/status
func (h *StepHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	step, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, step)
}

// Delete 删除步骤（已有分配时拒绝）
// DELETE /api/v1/steps/:id
func (h *StepHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}
