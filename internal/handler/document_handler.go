package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vinuthas0102/WO-Module-sub004/internal/service"
)

// DocumentHandler 附件与进度文档处理器
type DocumentHandler struct {
	svc *service.DocumentService
}

// NewDocumentHandler 创建附件处理器
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload 上传附件（multipart/form-data: file, description）
// POST /api/v1/documents/:scope/:scope_id
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "未找到上传文件: "+err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "打开上传文件失败: "+err.Error())
		return
	}
	defer file.Close()

	doc, err := h.svc.Upload(
		c.Request.Context(),
		c.Param("scope"), c.Param("scope_id"), GetUserID(c),
		file, fileHeader.Filename, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
		c.PostForm("description"),
	)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, doc)
}

// List 获取挂载范围下的附件（含临时下载URL）
// GET /api/v1/documents/:scope/:scope_id
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), c.Param("scope"), c.Param("scope_id"))
	if err != nil {
		InternalError(c, "获取附件列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": docs})
}

// Delete 删除附件（仅上传者或管理员）
// DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c), IsAdmin(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// UploadProgress 上传进度文档
// POST /api/v1/work-orders/:id/progress-documents
func (h *DocumentHandler) UploadProgress(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "未找到上传文件: "+err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "打开上传文件失败: "+err.Error())
		return
	}
	defer file.Close()

	doc, err := h.svc.UploadProgress(
		c.Request.Context(),
		c.Param("id"), c.PostForm("step_id"), GetUserID(c),
		file, fileHeader.Filename, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
		c.PostForm("description"),
	)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, doc)
}

// ListProgress 获取工单进度文档
// GET /api/v1/work-orders/:id/progress-documents?include_deleted=true
func (h *DocumentHandler) ListProgress(c *gin.Context) {
	includeDeleted := c.Query("include_deleted") == "true" && IsAdmin(c)
	docs, err := h.svc.ListProgress(c.Request.Context(), c.Param("id"), includeDeleted)
	if err != nil {
		InternalError(c, "获取进度文档失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": docs})
}

// DeleteProgress 软删除进度文档（需填写删除原因）
// DELETE /api/v1/progress-documents/:id
func (h *DocumentHandler) DeleteProgress(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.SoftDeleteProgress(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason, IsAdmin(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}

// CopyAttachments 把源工单附件批量复制到目标工单
// POST /api/v1/work-orders/:id/copy-attachments
func (h *DocumentHandler) CopyAttachments(c *gin.Context) {
	var req struct {
		SourceWorkOrderID string `json:"source_work_order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.CopyAttachments(c.Request.Context(), req.SourceWorkOrderID, c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}
