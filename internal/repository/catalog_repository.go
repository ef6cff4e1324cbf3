package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"gorm.io/gorm"
)

// ItemMasterRepository 物料主数据仓储
type ItemMasterRepository struct {
	db *gorm.DB
}

// NewItemMasterRepository 创建物料主数据仓储
func NewItemMasterRepository(db *gorm.DB) *ItemMasterRepository {
	return &ItemMasterRepository{db: db}
}

// FindByID 根据ID查找物料项
func (r *ItemMasterRepository) FindByID(ctx context.Context, id string) (*entity.ItemMaster, error) {
	var item entity.ItemMaster
	err := r.db.WithContext(ctx).
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

// Create 创建物料项
func (r *ItemMasterRepository) Create(ctx context.Context, item *entity.ItemMaster) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update 更新物料项
func (r *ItemMasterRepository) Update(ctx context.Context, item *entity.ItemMaster) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// SetActive 启用/停用物料项
func (r *ItemMasterRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&entity.ItemMaster{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List 获取物料项列表
func (r *ItemMasterRepository) List(ctx context.Context, activeOnly bool, keyword string) ([]entity.ItemMaster, error) {
	var items []entity.ItemMaster
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if activeOnly {
		query = query.Where("is_active = true")
	}
	if keyword != "" {
		query = query.Where("code ILIKE ? OR description ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	err := query.Order("code").Find(&items).Error
	return items, err
}

// SpecMasterRepository 规格主数据仓储
type SpecMasterRepository struct {
	db *gorm.DB
}

// NewSpecMasterRepository 创建规格主数据仓储
func NewSpecMasterRepository(db *gorm.DB) *SpecMasterRepository {
	return &SpecMasterRepository{db: db}
}

// FindByID 根据ID查找规格
func (r *SpecMasterRepository) FindByID(ctx context.Context, id string) (*entity.SpecMaster, error) {
	var spec entity.SpecMaster
	err := r.db.WithContext(ctx).
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

// Create 创建规格
func (r *SpecMasterRepository) Create(ctx context.Context, spec *entity.SpecMaster) error {
	return r.db.WithContext(ctx).Create(spec).Error
}

// Update 更新规格
func (r *SpecMasterRepository) Update(ctx context.Context, spec *entity.SpecMaster) error {
	return r.db.WithContext(ctx).Save(spec).Error
}

// SetActive 启用/停用规格
func (r *SpecMasterRepository) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&entity.SpecMaster{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List 获取规格列表
func (r *SpecMasterRepository) List(ctx context.Context, activeOnly bool, keyword string) ([]entity.SpecMaster, error) {
	var specs []entity.SpecMaster
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if activeOnly {
		query = query.Where("is_active = true")
	}
	if keyword != "" {
		query = query.Where("code ILIKE ? OR description ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}
	err := query.Order("code").Find(&specs).Error
	return specs, err
}
