package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"gorm.io/gorm"
)

// StepRepository 工作流步骤仓储
type StepRepository struct {
	db *gorm.DB
}

// NewStepRepository 创建步骤仓储
func NewStepRepository(db *gorm.DB) *StepRepository {
	return &StepRepository{db: db}
}

// FindByID 根据ID查找步骤
func (r *StepRepository) FindByID(ctx context.Context, id string) (*entity.WorkflowStep, error) {
	var step entity.WorkflowStep
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&step).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &step, nil
}

// Create 创建步骤
func (r *StepRepository) Create(ctx context.Context, step *entity.WorkflowStep) error {
	return r.db.WithContext(ctx).Create(step).Error
}

// Update 更新步骤
func (r *StepRepository) Update(ctx context.Context, step *entity.WorkflowStep) error {
	return r.db.WithContext(ctx).Save(step).Error
}

// UpdateStatus 更新步骤状态
func (r *StepRepository) UpdateStatus(ctx context.Context, id, status string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.WorkflowStep{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 软删除步骤
func (r *StepRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.WorkflowStep{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// ListByWorkOrder 获取工单的步骤树（按三级位置排序）
func (r *StepRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]entity.WorkflowStep, error) {
	var steps []entity.WorkflowStep
	err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("work_order_id = ? AND deleted_at IS NULL", workOrderID).
		Order("level1, level2, level3").
		Find(&steps).Error
	return steps, err
}

// FindByIDs 批量按ID查找步骤（依赖检查用）
func (r *StepRepository) FindByIDs(ctx context.Context, ids []string) ([]entity.WorkflowStep, error) {
	var steps []entity.WorkflowStep
	if len(ids) == 0 {
		return steps, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&steps).Error
	return steps, err
}
