package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vinuthas0102/WO-Module-sub004/internal/service"
)

// CatalogHandler 主数据处理器（物料项与规格）
type CatalogHandler struct {
	svc *service.CatalogService
}

// NewCatalogHandler 创建主数据处理器
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// CreateItem 创建物料项主数据
// POST /api/v1/catalog/items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.CreateItem(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, item)
}

// ListItems 获取物料项列表
// GET /api/v1/catalog/items?active_only=true&keyword=xxx
func (h *CatalogHandler) ListItems(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"
	items, err := h.svc.ListItems(c.Request.Context(), activeOnly, c.Query("keyword"))
	if err != nil {
		InternalError(c, "获取物料项列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// UpdateItem 更新物料项主数据
// PUT /api/v1/catalog/items/:id
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	var req service.CreateItemMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, item)
}

// SetItemActive 启用/停用物料项
// PUT /api/v1/catalog/items/:id/active
func (h *CatalogHandler) SetItemActive(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.SetItemActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "updated"})
}

// CreateSpec 创建规格主数据
// POST /api/v1/catalog/specs
func (h *CatalogHandler) CreateSpec(c *gin.Context) {
	var req service.CreateSpecMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	spec, err := h.svc.CreateSpec(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, spec)
}

// ListSpecs 获取规格列表
// GET /api/v1/catalog/specs?active_only=true&keyword=xxx
func (h *CatalogHandler) ListSpecs(c *gin.Context) {
	activeOnly := c.Query("active_only") == "true"
	specs, err := h.svc.ListSpecs(c.Request.Context(), activeOnly, c.Query("keyword"))
	if err != nil {
		InternalError(c, "获取规格列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": specs})
}

// UpdateSpec 更新规格主数据
// PUT /api/v1/catalog/specs/:id
func (h *CatalogHandler) UpdateSpec(c *gin.Context) {
	var req service.CreateSpecMasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	spec, err := h.svc.UpdateSpec(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, spec)
}

// SetSpecActive 启用/停用规格
// PUT /api/v1/catalog/specs/:id/active
func (h *CatalogHandler) SetSpecActive(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.SetSpecActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "updated"})
}
