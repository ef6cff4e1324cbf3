package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"gorm.io/gorm"
)

// DocumentRepository 附件与进度文档仓储
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建附件仓储
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID 根据ID查找附件
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Create 创建附件
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Delete 软删除附件
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Document{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// ListByScope 按挂载范围获取附件列表
func (r *DocumentRepository) ListByScope(ctx context.Context, scopeType, scopeID string) ([]entity.Document, error) {
	var docs []entity.Document
	err := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("scope_type = ? AND scope_id = ? AND deleted_at IS NULL", scopeType, scopeID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// FindProgressByID 根据ID查找进度文档
func (r *DocumentRepository) FindProgressByID(ctx context.Context, id string) (*entity.ProgressDocument, error) {
	var doc entity.ProgressDocument
	err := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// CreateProgress 创建进度文档
func (r *DocumentRepository) CreateProgress(ctx context.Context, doc *entity.ProgressDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// SoftDeleteProgress 软删除进度文档并记录删除原因与审计日志ID。
// 守卫 is_deleted = false，重复删除返回ErrNotFound。
func (r *DocumentRepository) SoftDeleteProgress(ctx context.Context, tx *gorm.DB, id, deletedBy, reason, logID string) error {
	now := time.Now()
	res := tx.WithContext(ctx).
		Model(&entity.ProgressDocument{}).
		Where("id = ? AND is_deleted = false", id).
		Updates(map[string]interface{}{
			"is_deleted":       true,
			"deleted_by":       deletedBy,
			"delete_reason":    reason,
			"deleted_time":     now,
			"operation_log_id": logID,
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DB 返回底层连接，供服务层开启跨仓储事务
func (r *DocumentRepository) DB() *gorm.DB {
	return r.db
}

// ListProgressByWorkOrder 获取工单的进度文档（默认排除已删除）
func (r *DocumentRepository) ListProgressByWorkOrder(ctx context.Context, workOrderID string, includeDeleted bool) ([]entity.ProgressDocument, error) {
	var docs []entity.ProgressDocument
	query := r.db.WithContext(ctx).
		Preload("Uploader").
		Where("work_order_id = ?", workOrderID)
	if !includeDeleted {
		query = query.Where("is_deleted = false")
	}
	err := query.Order("created_at DESC").Find(&docs).Error
	return docs, err
}
