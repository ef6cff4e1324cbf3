package entity

import (
	"time"
)

// 工单状态
const (
	WorkOrderStatusDraft           = "draft"
	WorkOrderStatusPendingApproval = "pending_approval"
	WorkOrderStatusApproved        = "approved"
	WorkOrderStatusRejected        = "rejected"
	WorkOrderStatusInProgress      = "in_progress"
	WorkOrderStatusCompleted       = "completed"
	WorkOrderStatusClosed          = "closed"
)

// WorkOrder 工单实体
type WorkOrder struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Code        string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Title       string     `json:"title" gorm:"size:256;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:24;not null;default:draft"`
	Priority    string     `json:"priority" gorm:"size:16;not null;default:medium"`
	OwnerID     string     `json:"owner_id" gorm:"size:32"`
	StartDate   *time.Time `json:"start_date" gorm:"type:date"`
	DueDate     *time.Time `json:"due_date" gorm:"type:date"`
	CreatedBy   string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Owner   *User          `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Creator *User          `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Steps   []WorkflowStep `json:"steps,omitempty" gorm:"foreignKey:WorkOrderID"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

// 财务审批状态
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
)

// FinanceApproval 工单财务审批记录
type FinanceApproval struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID  string     `json:"work_order_id" gorm:"size:32;not null;index"`
	Status       string     `json:"status" gorm:"size:16;not null;default:pending"`
	Amount       *float64   `json:"amount" gorm:"type:decimal(15,2)"`
	Remarks      string     `json:"remarks" gorm:"type:text"`
	RejectReason string     `json:"reject_reason" gorm:"type:text"`
	RequestedBy  string     `json:"requested_by" gorm:"size:32;not null"`
	DecidedBy    string     `json:"decided_by" gorm:"size:32"`
	DecidedAt    *time.Time `json:"decided_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	WorkOrder *WorkOrder `json:"work_order,omitempty" gorm:"foreignKey:WorkOrderID"`
	Requester *User      `json:"requester,omitempty" gorm:"foreignKey:RequestedBy"`
}

func (FinanceApproval) TableName() string {
	return "finance_approvals"
}
