package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"gorm.io/gorm"
)

// DetailRepository 工单明细仓储，同时管理物料明细和规格明细两张表。
// 容量预留/释放通过单条带条件的UPDATE完成，由数据库在行锁下判定，
// 并发调用不会出现超额分配。
type DetailRepository struct {
	db *gorm.DB
}

// NewDetailRepository 创建明细仓储
func NewDetailRepository(db *gorm.DB) *DetailRepository {
	return &DetailRepository{db: db}
}

func detailTable(detailType string) (string, error) {
	switch detailType {
	case entity.DetailTypeItem:
		return "work_order_items", nil
	case entity.DetailTypeSpec:
		return "work_order_specs", nil
	default:
		return "", fmt.Errorf("unknown detail type: %s", detailType)
	}
}

// CreateItem 创建物料明细
func (r *DetailRepository) CreateItem(ctx context.Context, item *entity.WorkOrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// CreateSpec 创建规格明细
func (r *DetailRepository) CreateSpec(ctx context.Context, spec *entity.WorkOrderSpec) error {
	return r.db.WithContext(ctx).Create(spec).Error
}

// FindItemByID 根据ID查找物料明细
func (r *DetailRepository) FindItemByID(ctx context.Context, id string) (*entity.WorkOrderItem, error) {
	var item entity.WorkOrderItem
	err := r.db.WithContext(ctx).
		Preload("ItemMaster").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindSpecByID 根据ID查找规格明细
func (r *DetailRepository) FindSpecByID(ctx context.Context, id string) (*entity.WorkOrderSpec, error) {
	var spec entity.WorkOrderSpec
	err := r.db.WithContext(ctx).
		Preload("SpecMaster").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&spec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &spec, nil
}

// ListItemsByWorkOrder 获取工单的物料明细
func (r *DetailRepository) ListItemsByWorkOrder(ctx context.Context, workOrderID string) ([]entity.WorkOrderItem, error) {
	var items []entity.WorkOrderItem
	err := r.db.WithContext(ctx).
		Preload("ItemMaster").
		Where("work_order_id = ? AND deleted_at IS NULL", workOrderID).
		Order("created_at").
		Find(&items).Error
	return items, err
}

// ListSpecsByWorkOrder 获取工单的规格明细
func (r *DetailRepository) ListSpecsByWorkOrder(ctx context.Context, workOrderID string) ([]entity.WorkOrderSpec, error) {
	var specs []entity.WorkOrderSpec
	err := r.db.WithContext(ctx).
		Preload("SpecMaster").
		Where("work_order_id = ? AND deleted_at IS NULL", workOrderID).
		Order("created_at").
		Find(&specs).Error
	return specs, err
}

// Reserve 在明细上预留amount的分配容量。
// 条件 quantity - allocated_quantity >= amount 由同一条UPDATE语句判定，
// RowsAffected==0 时区分“明细不存在”与“容量不足”。
func (r *DetailRepository) Reserve(ctx context.Context, tx *gorm.DB, detailType, id string, amount float64) error {
	table, err := detailTable(detailType)
	if err != nil {
		return err
	}
	res := tx.WithContext(ctx).
		Table(table).
		Where("id = ? AND deleted_at IS NULL AND quantity - allocated_quantity >= ?", id, amount).
		Updates(map[string]interface{}{
			"allocated_quantity": gorm.Expr("allocated_quantity + ?", amount),
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if exists, err := r.exists(ctx, tx, table, id); err != nil {
			return err
		} else if !exists {
			return ErrNotFound
		}
		return ErrCapacityExceeded
	}
	return nil
}

// Release 释放明细上已预留的分配容量（删除或调小分配时调用）。
// allocated_quantity >= amount 的守卫防止释放导致负值。
func (r *DetailRepository) Release(ctx context.Context, tx *gorm.DB, detailType, id string, amount float64) error {
	table, err := detailTable(detailType)
	if err != nil {
		return err
	}
	res := tx.WithContext(ctx).
		Table(table).
		Where("id = ? AND deleted_at IS NULL AND allocated_quantity >= ?", id, amount).
		Updates(map[string]interface{}{
			"allocated_quantity": gorm.Expr("allocated_quantity - ?", amount),
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIfUnallocated 仅当明细没有任何已分配量时软删除。
// 守卫条件和删除在同一条UPDATE中判定，不存在先查后删的窗口。
func (r *DetailRepository) DeleteIfUnallocated(ctx context.Context, detailType, id string) error {
	table, err := detailTable(detailType)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND deleted_at IS NULL AND allocated_quantity = 0", id).
		Update("deleted_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if exists, err := r.exists(ctx, r.db, table, id); err != nil {
			return err
		} else if !exists {
			return ErrNotFound
		}
		return ErrHasAllocations
	}
	return nil
}

// UpdateRemarks 更新明细备注
func (r *DetailRepository) UpdateRemarks(ctx context.Context, detailType, id, remarks string) error {
	table, err := detailTable(detailType)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{"remarks": remarks, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// WorkOrderIDOf 查询明细所属的工单ID（分配前校验归属）
func (r *DetailRepository) WorkOrderIDOf(ctx context.Context, tx *gorm.DB, detailType, id string) (string, error) {
	table, err := detailTable(detailType)
	if err != nil {
		return "", err
	}
	var workOrderID string
	err = tx.WithContext(ctx).
		Table(table).
		Select("work_order_id").
		Where("id = ? AND deleted_at IS NULL", id).
		Scan(&workOrderID).Error
	if err != nil {
		return "", err
	}
	if workOrderID == "" {
		return "", ErrNotFound
	}
	return workOrderID, nil
}

func (r *DetailRepository) exists(ctx context.Context, tx *gorm.DB, table, id string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Table(table).
		Where("id = ? AND deleted_at IS NULL", id).
		Count(&count).Error
	return count > 0, err
}

// DB 返回底层连接，供服务层开启跨仓储事务
func (r *DetailRepository) DB() *gorm.DB {
	return r.db
}
