package entity

import (
	"time"
)

// 明细类型（分配台账中的detail_type取值）
const (
	DetailTypeItem = "item"
	DetailTypeSpec = "spec"
)

// WorkOrderItem 工单物料明细
// AllocatedQuantity 为物化的已分配总量，与分配台账写入在同一事务内维护。
type WorkOrderItem struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID       string     `json:"work_order_id" gorm:"size:32;not null;index"`
	ItemMasterID      string     `json:"item_master_id" gorm:"size:32;not null;index"`
	Quantity          float64    `json:"quantity" gorm:"type:decimal(15,4);not null"`
	AllocatedQuantity float64    `json:"allocated_quantity" gorm:"type:decimal(15,4);not null;default:0"`
	Unit              string     `json:"unit" gorm:"size:16;not null;default:pcs"`
	Remarks           string     `json:"remarks" gorm:"type:text"`
	AddedBy           string     `json:"added_by" gorm:"size:32;not null"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	ItemMaster *ItemMaster `json:"item_master,omitempty" gorm:"foreignKey:ItemMasterID"`

	// 非数据库字段：读侧视图附带的剩余量
	RemainingQuantity float64 `json:"remaining_quantity" gorm:"-"`
}

func (WorkOrderItem) TableName() string {
	return "work_order_items"
}

// WorkOrderSpec 工单规格明细
type WorkOrderSpec struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID       string     `json:"work_order_id" gorm:"size:32;not null;index"`
	SpecMasterID      string     `json:"spec_master_id" gorm:"size:32;not null;index"`
	Quantity          float64    `json:"quantity" gorm:"type:decimal(15,4);not null"`
	AllocatedQuantity float64    `json:"allocated_quantity" gorm:"type:decimal(15,4);not null;default:0"`
	Unit              string     `json:"unit" gorm:"size:16;not null;default:nos"`
	Remarks           string     `json:"remarks" gorm:"type:text"`
	AddedBy           string     `json:"added_by" gorm:"size:32;not null"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	SpecMaster *SpecMaster `json:"spec_master,omitempty" gorm:"foreignKey:SpecMasterID"`

	// 非数据库字段
	RemainingQuantity float64 `json:"remaining_quantity" gorm:"-"`
}

func (WorkOrderSpec) TableName() string {
	return "work_order_specs"
}
