package entity

import (
	"time"
)

// 步骤状态
const (
	StepStatusNotStarted = "NOT_STARTED"
	StepStatusWIP        = "WIP"
	StepStatusCompleted  = "COMPLETED"
)

// 依赖满足模式
const (
	DependencyModeAll    = "all"
	DependencyModeAnyOne = "any_one"
)

// WorkflowStep 工作流步骤，三级位置编号构成层级（父子关系由level字段隐含）
type WorkflowStep struct {
	ID               string     `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID      string     `json:"work_order_id" gorm:"size:32;not null;index"`
	Title            string     `json:"title" gorm:"size:256;not null"`
	Status           string     `json:"status" gorm:"size:16;not null;default:NOT_STARTED"`
	Level1           int        `json:"level1" gorm:"not null;default:0"`
	Level2           int        `json:"level2" gorm:"not null;default:0"`
	Level3           int        `json:"level3" gorm:"not null;default:0"`
	IsParallel       bool       `json:"is_parallel" gorm:"not null;default:false"`
	DependencyMode   string     `json:"dependency_mode" gorm:"size:8;not null;default:all"`
	DependsOnStepIDs StringList `json:"depends_on_step_ids" gorm:"type:jsonb"`
	AssignedTo       string     `json:"assigned_to" gorm:"size:32"`
	StartDate        *time.Time `json:"start_date" gorm:"type:date"`
	DueDate          *time.Time `json:"due_date" gorm:"type:date"`
	CreatedBy        string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Assignee *User `json:"assignee,omitempty" gorm:"foreignKey:AssignedTo"`
}

func (WorkflowStep) TableName() string {
	return "workflow_steps"
}
