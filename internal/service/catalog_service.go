package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
)

// CatalogService 主数据服务（物料项与规格）
type CatalogService struct {
	itemRepo *repository.ItemMasterRepository
	specRepo *repository.SpecMasterRepository
}

// NewCatalogService 创建主数据服务
func NewCatalogService(itemRepo *repository.ItemMasterRepository, specRepo *repository.SpecMasterRepository) *CatalogService {
	return &CatalogService{itemRepo: itemRepo, specRepo: specRepo}
}

// CreateItemMasterRequest 创建物料项请求
type CreateItemMasterRequest struct {
	Code            string  `json:"code" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	Category        string  `json:"category"`
	SubCategory     string  `json:"sub_category"`
	DefaultQuantity float64 `json:"default_quantity"`
	Unit            string  `json:"unit"`
}

// CreateSpecMasterRequest 创建规格请求
type CreateSpecMasterRequest struct {
	Code            string  `json:"code" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	Category        string  `json:"category"`
	WorkChunk       string  `json:"work_chunk"`
	DefaultQuantity float64 `json:"default_quantity"`
	Unit            string  `json:"unit"`
}

// CreateItem 创建物料项主数据
func (s *CatalogService) CreateItem(ctx context.Context, userID string, req *CreateItemMasterRequest) (*entity.ItemMaster, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: code and description are required", ErrValidation)
	}
	qty := req.DefaultQuantity
	if qty <= 0 {
		qty = 1
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}

	item := &entity.ItemMaster{
		ID:              uuid.New().String()[:32],
		Code:            strings.TrimSpace(req.Code),
		Description:     strings.TrimSpace(req.Description),
		Category:        req.Category,
		SubCategory:     req.SubCategory,
		DefaultQuantity: qty,
		Unit:            unit,
		IsActive:        true,
		CreatedBy:       userID,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item master: %w", err)
	}
	return item, nil
}

// CreateSpec 创建规格主数据
func (s *CatalogService) CreateSpec(ctx context.Context, userID string, req *CreateSpecMasterRequest) (*entity.SpecMaster, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: code and description are required", ErrValidation)
	}
	qty := req.DefaultQuantity
	if qty <= 0 {
		qty = 1
	}
	unit := req.Unit
	if unit == "" {
		unit = "nos"
	}

	spec := &entity.SpecMaster{
		ID:              uuid.New().String()[:32],
		Code:            strings.TrimSpace(req.Code),
		Description:     strings.TrimSpace(req.Description),
		Category:        req.Category,
		WorkChunk:       req.WorkChunk,
		DefaultQuantity: qty,
		Unit:            unit,
		IsActive:        true,
		CreatedBy:       userID,
	}
	if err := s.specRepo.Create(ctx, spec); err != nil {
		return nil, fmt.Errorf("create spec master: %w", err)
	}
	return spec, nil
}

// ListItems 获取物料项列表
func (s *CatalogService) ListItems(ctx context.Context, activeOnly bool, keyword string) ([]entity.ItemMaster, error) {
	return s.itemRepo.List(ctx, activeOnly, keyword)
}

// ListSpecs 获取规格列表
func (s *CatalogService) ListSpecs(ctx context.Context, activeOnly bool, keyword string) ([]entity.SpecMaster, error) {
	return s.specRepo.List(ctx, activeOnly, keyword)
}

// SetItemActive 启用/停用物料项（不做硬删除）
func (s *CatalogService) SetItemActive(ctx context.Context, id string, active bool) error {
	return s.itemRepo.SetActive(ctx, id, active)
}

// SetSpecActive 启用/停用规格
func (s *CatalogService) SetSpecActive(ctx context.Context, id string, active bool) error {
	return s.specRepo.SetActive(ctx, id, active)
}

// UpdateItem 更新物料项主数据
func (s *CatalogService) UpdateItem(ctx context.Context, id string, req *CreateItemMasterRequest) (*entity.ItemMaster, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.SubCategory != "" {
		item.SubCategory = req.SubCategory
	}
	if req.DefaultQuantity > 0 {
		item.DefaultQuantity = req.DefaultQuantity
	}
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item master: %w", err)
	}
	return item, nil
}

// UpdateSpec 更新规格主数据
func (s *CatalogService) UpdateSpec(ctx context.Context, id string, req *CreateSpecMasterRequest) (*entity.SpecMaster, error) {
	spec, err := s.specRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		spec.Description = req.Description
	}
	if req.Category != "" {
		spec.Category = req.Category
	}
	if req.WorkChunk != "" {
		spec.WorkChunk = req.WorkChunk
	}
	if req.DefaultQuantity > 0 {
		spec.DefaultQuantity = req.DefaultQuantity
	}
	if req.Unit != "" {
		spec.Unit = req.Unit
	}
	if err := s.specRepo.Update(ctx, spec); err != nil {
		return nil, fmt.Errorf("update spec master: %w", err)
	}
	return spec, nil
}
