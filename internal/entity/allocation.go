package entity

import (
	"time"
)

// Allocation 分配台账行：把某个工单明细的部分数量分配到一个工作流步骤。
// 同一明细可被多次分配，累计量受明细数量上限约束。
type Allocation struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID       string    `json:"work_order_id" gorm:"size:32;not null;index"`
	DetailType        string    `json:"detail_type" gorm:"size:8;not null;index:idx_allocations_detail"`
	DetailID          string    `json:"detail_id" gorm:"size:32;not null;index:idx_allocations_detail"`
	WorkflowStepID    string    `json:"workflow_step_id" gorm:"size:32;not null;index"`
	AllocatedQuantity float64   `json:"allocated_quantity" gorm:"type:decimal(15,4);not null"`
	AllocatedBy       string    `json:"allocated_by" gorm:"size:32;not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// 关联
	WorkflowStep *WorkflowStep `json:"workflow_step,omitempty" gorm:"foreignKey:WorkflowStepID"`
}

func (Allocation) TableName() string {
	return "allocations"
}
