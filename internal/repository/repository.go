package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
	// ErrCapacityExceeded 分配量超出明细剩余可分配量
	ErrCapacityExceeded = errors.New("allocation exceeds available quantity")
	// ErrHasAllocations 明细仍有未释放的分配，禁止删除
	ErrHasAllocations = errors.New("detail has active allocations")
)

// Repositories 仓库集合
type Repositories struct {
	User         *UserRepository
	WorkOrder    *WorkOrderRepository
	ItemMaster   *ItemMasterRepository
	SpecMaster   *SpecMasterRepository
	Detail       *DetailRepository
	Allocation   *AllocationRepository
	Step         *StepRepository
	Document     *DocumentRepository
	OperationLog *OperationLogRepository
	Approval     *ApprovalRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		WorkOrder:    NewWorkOrderRepository(db),
		ItemMaster:   NewItemMasterRepository(db),
		SpecMaster:   NewSpecMasterRepository(db),
		Detail:       NewDetailRepository(db),
		Allocation:   NewAllocationRepository(db),
		Step:         NewStepRepository(db),
		Document:     NewDocumentRepository(db),
		OperationLog: NewOperationLogRepository(db),
		Approval:     NewApprovalRepository(db),
	}
}
