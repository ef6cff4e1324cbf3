package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 审计动作
const (
	ActionAllocate        = "allocate"
	ActionUpdateAlloc     = "update_allocation"
	ActionReleaseAlloc    = "release_allocation"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionSubmitApproval  = "submit_approval"
	ActionSoftDeleteDoc   = "soft_delete_document"
	ActionCopyAttachments = "copy_attachments"
)

// OperationLog 操作审计日志
type OperationLog struct {
	ID         string         `json:"id" gorm:"primaryKey;size:32"`
	UserID     string         `json:"user_id" gorm:"size:32;not null;index"`
	Action     string         `json:"action" gorm:"size:32;not null"`
	EntityType string         `json:"entity_type" gorm:"size:32;not null;index:idx_operation_logs_entity"`
	EntityID   string         `json:"entity_id" gorm:"size:32;not null;index:idx_operation_logs_entity"`
	Detail     datatypes.JSON `json:"detail" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`

	// 关联
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (OperationLog) TableName() string {
	return "operation_logs"
}
