package repository

import (
	"context"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"gorm.io/gorm"
)

// OperationLogRepository 操作审计日志仓储
type OperationLogRepository struct {
	db *gorm.DB
}

// NewOperationLogRepository 创建审计日志仓储
func NewOperationLogRepository(db *gorm.DB) *OperationLogRepository {
	return &OperationLogRepository{db: db}
}

// Create 追加审计日志
func (r *OperationLogRepository) Create(ctx context.Context, log *entity.OperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateTx 在指定事务内追加审计日志
func (r *OperationLogRepository) CreateTx(ctx context.Context, tx *gorm.DB, log *entity.OperationLog) error {
	return tx.WithContext(ctx).Create(log).Error
}

// ListByEntity 获取某个实体的审计历史
func (r *OperationLogRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]entity.OperationLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []entity.OperationLog
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
