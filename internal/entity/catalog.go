package entity

import (
	"time"
)

// ItemMaster 物料项主数据（管理员维护，软停用不硬删）
type ItemMaster struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	Code            string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Description     string     `json:"description" gorm:"size:512;not null"`
	Category        string     `json:"category" gorm:"size:64"`
	SubCategory     string     `json:"sub_category" gorm:"size:64"`
	DefaultQuantity float64    `json:"default_quantity" gorm:"type:decimal(15,4);not null;default:1"`
	Unit            string     `json:"unit" gorm:"size:16;not null;default:pcs"`
	IsActive        bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedBy       string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at" gorm:"index"`
}

func (ItemMaster) TableName() string {
	return "item_masters"
}

// SpecMaster 工作规格主数据（按工作块划分的作业规格）
type SpecMaster struct {
	ID              string     `json:"id" gorm:"primaryKey;size:32"`
	Code            string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Description     string     `json:"description" gorm:"size:512;not null"`
	Category        string     `json:"category" gorm:"size:64"`
	WorkChunk       string     `json:"work_chunk" gorm:"size:64"`
	DefaultQuantity float64    `json:"default_quantity" gorm:"type:decimal(15,4);not null;default:1"`
	Unit            string     `json:"unit" gorm:"size:16;not null;default:nos"`
	IsActive        bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedBy       string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at" gorm:"index"`
}

func (SpecMaster) TableName() string {
	return "spec_masters"
}
