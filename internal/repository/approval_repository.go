package repository

import (
	"context"
	"errors"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"gorm.io/gorm"
)

// ApprovalRepository 财务审批仓储
type ApprovalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository 创建财务审批仓储
func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// FindByID 根据ID查找审批记录
func (r *ApprovalRepository) FindByID(ctx context.Context, id string) (*entity.FinanceApproval, error) {
	var approval entity.FinanceApproval
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("id = ?", id).
		First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &approval, nil
}

// FindPendingByWorkOrder 查找工单待审批记录
func (r *ApprovalRepository) FindPendingByWorkOrder(ctx context.Context, workOrderID string) (*entity.FinanceApproval, error) {
	var approval entity.FinanceApproval
	err := r.db.WithContext(ctx).
		Where("work_order_id = ? AND status = ?", workOrderID, entity.ApprovalStatusPending).
		First(&approval).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &approval, nil
}

// Create 创建审批记录
func (r *ApprovalRepository) Create(ctx context.Context, approval *entity.FinanceApproval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

// Update 更新审批记录
func (r *ApprovalRepository) Update(ctx context.Context, approval *entity.FinanceApproval) error {
	return r.db.WithContext(ctx).Save(approval).Error
}

// ListByWorkOrder 获取工单的审批历史
func (r *ApprovalRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]entity.FinanceApproval, error) {
	var approvals []entity.FinanceApproval
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("work_order_id = ?", workOrderID).
		Order("created_at DESC").
		Find(&approvals).Error
	return approvals, err
}
