package repository

import (
	"context"
	"errors"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationRepository 分配台账仓储
type AllocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository 创建分配台账仓储
func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Create 创建分配行（必须在与容量预留相同的事务中调用）
func (r *AllocationRepository) Create(ctx context.Context, tx *gorm.DB, alloc *entity.Allocation) error {
	return tx.WithContext(ctx).Create(alloc).Error
}

// FindByID 根据ID查找分配行
func (r *AllocationRepository) FindByID(ctx context.Context, id string) (*entity.Allocation, error) {
	var alloc entity.Allocation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&alloc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alloc, nil
}

// FindByIDForUpdate 在事务内加行锁读取分配行。
// 调整或删除分配前必须用它取当前值，否则差额会基于过期读数计算。
func (r *AllocationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.Allocation, error) {
	var alloc entity.Allocation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&alloc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alloc, nil
}

// UpdateQuantity 更新分配行数量（与容量调整同事务）
func (r *AllocationRepository) UpdateQuantity(ctx context.Context, tx *gorm.DB, id string, quantity float64) error {
	res := tx.WithContext(ctx).
		Model(&entity.Allocation{}).
		Where("id = ?", id).
		Update("allocated_quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete 删除分配行（与容量释放同事务）
func (r *AllocationRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	res := tx.WithContext(ctx).Delete(&entity.Allocation{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByDetail 获取某个明细的所有分配行
func (r *AllocationRepository) ListByDetail(ctx context.Context, detailType, detailID string) ([]entity.Allocation, error) {
	var allocs []entity.Allocation
	err := r.db.WithContext(ctx).
		Preload("WorkflowStep").
		Where("detail_type = ? AND detail_id = ?", detailType, detailID).
		Order("created_at").
		Find(&allocs).Error
	return allocs, err
}

// ListByWorkOrder 获取工单的所有分配行
func (r *AllocationRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]entity.Allocation, error) {
	var allocs []entity.Allocation
	err := r.db.WithContext(ctx).
		Preload("WorkflowStep").
		Where("work_order_id = ?", workOrderID).
		Order("created_at").
		Find(&allocs).Error
	return allocs, err
}

// ListByStep 获取某个工作流步骤收到的所有分配行
func (r *AllocationRepository) ListByStep(ctx context.Context, stepID string) ([]entity.Allocation, error) {
	var allocs []entity.Allocation
	err := r.db.WithContext(ctx).
		Where("workflow_step_id = ?", stepID).
		Order("created_at").
		Find(&allocs).Error
	return allocs, err
}

// SumByDetail 统计某个明细的分配总量（对账用，正常读路径直接用物化列）
func (r *AllocationRepository) SumByDetail(ctx context.Context, detailType, detailID string) (float64, error) {
	var sum *float64
	err := r.db.WithContext(ctx).
		Model(&entity.Allocation{}).
		Select("SUM(allocated_quantity)").
		Where("detail_type = ? AND detail_id = ?", detailType, detailID).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
