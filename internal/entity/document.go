package entity

import (
	"time"
)

// 附件挂载范围
const (
	DocumentScopeWorkOrder = "work_order"
	DocumentScopeStep      = "step"
)

// Document 附件元数据，指向对象存储中的文件
type Document struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	ScopeType   string     `json:"scope_type" gorm:"size:16;not null;index:idx_documents_scope"`
	ScopeID     string     `json:"scope_id" gorm:"size:32;not null;index:idx_documents_scope"`
	FileName    string     `json:"file_name" gorm:"size:256;not null"`
	FilePath    string     `json:"file_path" gorm:"size:512;not null"`
	FileSize    int64      `json:"file_size" gorm:"not null"`
	MimeType    string     `json:"mime_type" gorm:"size:128"`
	Description string     `json:"description" gorm:"type:text"`
	UploadedBy  string     `json:"uploaded_by" gorm:"size:32;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	Uploader *User `json:"uploader,omitempty" gorm:"foreignKey:UploadedBy"`

	// 非数据库字段：读取时签发的临时下载地址
	DownloadURL string `json:"download_url,omitempty" gorm:"-"`
}

func (Document) TableName() string {
	return "documents"
}

// ProgressDocument 进度文档：支持带原因的软删除并关联审计日志
type ProgressDocument struct {
	ID             string     `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID    string     `json:"work_order_id" gorm:"size:32;not null;index"`
	WorkflowStepID string     `json:"workflow_step_id" gorm:"size:32;index"`
	FileName       string     `json:"file_name" gorm:"size:256;not null"`
	FilePath       string     `json:"file_path" gorm:"size:512;not null"`
	FileSize       int64      `json:"file_size" gorm:"not null"`
	MimeType       string     `json:"mime_type" gorm:"size:128"`
	Description    string     `json:"description" gorm:"type:text"`
	UploadedBy     string     `json:"uploaded_by" gorm:"size:32;not null"`
	IsDeleted      bool       `json:"is_deleted" gorm:"not null;default:false;index"`
	DeletedBy      string     `json:"deleted_by" gorm:"size:32"`
	DeleteReason   string     `json:"delete_reason" gorm:"type:text"`
	DeletedTime    *time.Time `json:"deleted_time"`
	OperationLogID string     `json:"operation_log_id" gorm:"size:32"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// 关联
	Uploader *User `json:"uploader,omitempty" gorm:"foreignKey:UploadedBy"`

	// 非数据库字段
	DownloadURL string `json:"download_url,omitempty" gorm:"-"`
}

func (ProgressDocument) TableName() string {
	return "progress_documents"
}
