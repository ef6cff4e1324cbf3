package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
)

// StepService 工作流步骤服务
type StepService struct {
	stepRepo  *repository.StepRepository
	allocRepo *repository.AllocationRepository
}

// NewStepService 创建步骤服务
func NewStepService(stepRepo *repository.StepRepository, allocRepo *repository.AllocationRepository) *StepService {
	return &StepService{stepRepo: stepRepo, allocRepo: allocRepo}
}

// CreateStepRequest 创建步骤请求
type CreateStepRequest struct {
	Title            string     `json:"title"`
	Level1           int        `json:"level1"`
	Level2           int        `json:"level2"`
	Level3           int        `json:"level3"`
	IsParallel       bool       `json:"is_parallel"`
	DependencyMode   string     `json:"dependency_mode"`
	DependsOnStepIDs []string   `json:"depends_on_step_ids"`
	AssignedTo       string     `json:"assigned_to"`
	StartDate        *time.Time `json:"start_date"`
	DueDate          *time.Time `json:"due_date"`
}

// BulkStepResult 批量创建的单行结果
type BulkStepResult struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	StepID  string `json:"step_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkCreateResult 批量创建结果汇总
type BulkCreateResult struct {
	SuccessCount int              `json:"success_count"`
	FailedCount  int              `json:"failed_count"`
	Results      []BulkStepResult `json:"results"`
}

func (s *StepService) validate(req *CreateStepRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if req.DependencyMode != "" &&
		req.DependencyMode != entity.DependencyModeAll &&
		req.DependencyMode != entity.DependencyModeAnyOne {
		return fmt.Errorf("%w: invalid dependency mode %q", ErrValidation, req.DependencyMode)
	}
	return nil
}

func (s *StepService) build(workOrderID, userID string, req *CreateStepRequest) *entity.WorkflowStep {
	mode := req.DependencyMode
	if mode == "" {
		mode = entity.DependencyModeAll
	}
	return &entity.WorkflowStep{
		ID:               uuid.New().String()[:32],
		WorkOrderID:      workOrderID,
		Title:            strings.TrimSpace(req.Title),
		Status:           entity.StepStatusNotStarted,
		Level1:           req.Level1,
		Level2:           req.Level2,
		Level3:           req.Level3,
		IsParallel:       req.IsParallel,
		DependencyMode:   mode,
		DependsOnStepIDs: req.DependsOnStepIDs,
		AssignedTo:       req.AssignedTo,
		StartDate:        req.StartDate,
		DueDate:          req.DueDate,
		CreatedBy:        userID,
	}
}

// Create 创建单个步骤
func (s *StepService) Create(ctx context.Context, workOrderID, userID string, req *CreateStepRequest) (*entity.WorkflowStep, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	step := s.build(workOrderID, userID, req)
	if err := s.stepRepo.Create(ctx, step); err != nil {
		return nil, fmt.Errorf("create workflow step: %w", err)
	}
	return step, nil
}

// BulkCreate 批量创建步骤。每行独立校验和落库：
// 个别行失败不影响其余行，结果逐行返回成败与原因。
func (s *StepService) BulkCreate(ctx context.Context, workOrderID, userID string, reqs []CreateStepRequest) *BulkCreateResult {
	result := &BulkCreateResult{Results: make([]BulkStepResult, 0, len(reqs))}
	for i := range reqs {
		req := &reqs[i]
		if err := s.validate(req); err != nil {
			result.FailedCount++
			result.Results = append(result.Results, BulkStepResult{Index: i, Success: false, Error: err.Error()})
			continue
		}
		step := s.build(workOrderID, userID, req)
		if err := s.stepRepo.Create(ctx, step); err != nil {
			result.FailedCount++
			result.Results = append(result.Results, BulkStepResult{Index: i, Success: false, Error: err.Error()})
			continue
		}
		result.SuccessCount++
		result.Results = append(result.Results, BulkStepResult{Index: i, Success: true, StepID: step.ID})
	}
	return result
}

// ListByWorkOrder 获取工单的步骤树
func (s *StepService) ListByWorkOrder(ctx context.Context, workOrderID string) ([]entity.WorkflowStep, error) {
	return s.stepRepo.ListByWorkOrder(ctx, workOrderID)
}

// Get 获取步骤详情
func (s *StepService) Get(ctx context.Context, id string) (*entity.WorkflowStep, error) {
	return s.stepRepo.FindByID(ctx, id)
}

// UpdateStatus 更新步骤状态。离开NOT_STARTED前检查依赖满足情况：
// all模式要求所有依赖步骤COMPLETED，any_one模式要求至少一个。
func (s *StepService) UpdateStatus(ctx context.Context, id, status string) (*entity.WorkflowStep, error) {
	if status != entity.StepStatusNotStarted &&
		status != entity.StepStatusWIP &&
		status != entity.StepStatusCompleted {
		return nil, fmt.Errorf("%w: invalid step status %q", ErrValidation, status)
	}

	step, err := s.stepRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if status != entity.StepStatusNotStarted && len(step.DependsOnStepIDs) > 0 {
		satisfied, blocking, err := s.dependenciesSatisfied(ctx, step)
		if err != nil {
			return nil, err
		}
		if !satisfied {
			return nil, fmt.Errorf("%w: dependency not satisfied: %s", ErrValidation, strings.Join(blocking, ", "))
		}
	}

	if err := s.stepRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	step.Status = status
	return step, nil
}

// Update 更新步骤基本信息
func (s *StepService) Update(ctx context.Context, id string, req *CreateStepRequest) (*entity.WorkflowStep, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	step, err := s.stepRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	step.Title = strings.TrimSpace(req.Title)
	step.Level1 = req.Level1
	step.Level2 = req.Level2
	step.Level3 = req.Level3
	step.IsParallel = req.IsParallel
	if req.DependencyMode != "" {
		step.DependencyMode = req.DependencyMode
	}
	step.DependsOnStepIDs = req.DependsOnStepIDs
	step.AssignedTo = req.AssignedTo
	step.StartDate = req.StartDate
	step.DueDate = req.DueDate

	if err := s.stepRepo.Update(ctx, step); err != nil {
		return nil, fmt.Errorf("update workflow step: %w", err)
	}
	return step, nil
}

// Delete 删除步骤。已收到分配的步骤不可删除。
func (s *StepService) Delete(ctx context.Context, id string) error {
	allocs, err := s.allocRepo.ListByStep(ctx, id)
	if err != nil {
		return fmt.Errorf("list step allocations: %w", err)
	}
	if len(allocs) > 0 {
		return repository.ErrHasAllocations
	}
	return s.stepRepo.Delete(ctx, id)
}

func (s *StepService) dependenciesSatisfied(ctx context.Context, step *entity.WorkflowStep) (bool, []string, error) {
	deps, err := s.stepRepo.FindByIDs(ctx, step.DependsOnStepIDs)
	if err != nil {
		return false, nil, fmt.Errorf("load dependencies: %w", err)
	}

	var blocking []string
	completed := 0
	for _, dep := range deps {
		if dep.Status == entity.StepStatusCompleted {
			completed++
		} else {
			blocking = append(blocking, dep.Title)
		}
	}

	switch step.DependencyMode {
	case entity.DependencyModeAnyOne:
		return completed > 0, blocking, nil
	default:
		return completed == len(deps), blocking, nil
	}
}
