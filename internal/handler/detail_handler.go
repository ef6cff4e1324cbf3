package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vinuthas0102/WO-Module-sub004/internal/service"
)

// DetailHandler 工单明细与分配处理器
type DetailHandler struct {
	svc *service.DetailService
}

// NewDetailHandler 创建明细处理器
func NewDetailHandler(svc *service.DetailService) *DetailHandler {
	return &DetailHandler{svc: svc}
}

// AddItem 向工单添加物料明细
// POST /api/v1/work-orders/:id/items
func (h *DetailHandler) AddItem(c *gin.Context) {
	var req service.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, item)
}

// ListItems 获取工单物料明细（含分配行与剩余量）
// GET /api/v1/work-orders/:id/items
func (h *DetailHandler) ListItems(c *gin.Context) {
	views, err := h.svc.GetItemDetailsByWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取物料明细失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": views})
}

// AddSpec 向工单添加规格明细
// POST /api/v1/work-orders/:id/specs
func (h *DetailHandler) AddSpec(c *gin.Context) {
	var req service.AddSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	spec, err := h.svc.AddSpec(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, spec)
}

// ListSpecs 获取工单规格明细（含分配行与剩余量）
// GET /api/v1/work-orders/:id/specs
func (h *DetailHandler) ListSpecs(c *gin.Context) {
	views, err := h.svc.GetSpecDetailsByWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取规格明细失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": views})
}

// DeleteDetail 删除明细（仍有分配时拒绝）
// DELETE /api/v1/details/:type/:id
func (h *DetailHandler) DeleteDetail(c *gin.Context) {
	if err := h.svc.DeleteDetail(c.Request.Context(), c.Param("type"), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// Allocate 把明细数量分配到工作流步骤
// POST /api/v1/work-orders/:id/allocations
func (h *DetailHandler) Allocate(c *gin.Context) {
	var req service.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	alloc, err := h.svc.Allocate(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, alloc)
}

// UpdateAllocation 调整分配数量
// PUT /api/v1/allocations/:id
func (h *DetailHandler) UpdateAllocation(c *gin.Context) {
	var req struct {
		Quantity float64 `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	alloc, err := h.svc.UpdateAllocation(c.Request.Context(), c.Param("id"), GetUserID(c), req.Quantity)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, alloc)
}

// DeleteAllocation 删除分配行并释放容量
// DELETE /api/v1/allocations/:id
func (h *DetailHandler) DeleteAllocation(c *gin.Context) {
	if err := h.svc.DeleteAllocation(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// ListDetailAllocations 获取某个明细的全部分配行
// GET /api/v1/details/:type/:id/allocations
func (h *DetailHandler) ListDetailAllocations(c *gin.Context) {
	allocs, err := h.svc.ListAllocationsByDetail(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": allocs})
}

// ListStepAllocations 获取步骤收到的分配行
// GET /api/v1/steps/:id/allocations
func (h *DetailHandler) ListStepAllocations(c *gin.Context) {
	allocs, err := h.svc.ListAllocationsByStep(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取步骤分配失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": allocs})
}
