package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"github.com/vinuthas0102/WO-Module-sub004/internal/testutil"
	"gorm.io/gorm"
)

func setupDetailTest(t *testing.T) (*gorm.DB, *DetailService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewDetailService(repos.Detail, repos.Allocation, repos.ItemMaster, repos.SpecMaster, repos.OperationLog)
	return db, svc
}

func seedStep(t *testing.T, db *gorm.DB, id, workOrderID string) *entity.WorkflowStep {
	t.Helper()
	step := &entity.WorkflowStep{
		ID:          id,
		WorkOrderID: workOrderID,
		Title:       "Step " + id,
		Status:      entity.StepStatusNotStarted,
		Level1:      1,
		CreatedBy:   "test-user-001",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := db.Create(step).Error; err != nil {
		t.Fatalf("Failed to seed step: %v", err)
	}
	return step
}

func TestAddItemAndListDetails(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")

	item, err := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001",
		Quantity:     10,
	})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.Unit != "pcs" {
		t.Errorf("Expected default unit pcs, got %s", item.Unit)
	}
	if item.RemainingQuantity != 10 {
		t.Errorf("Expected remaining 10, got %v", item.RemainingQuantity)
	}

	views, err := svc.GetItemDetailsByWorkOrder(ctx, "wo-001")
	if err != nil {
		t.Fatalf("GetItemDetailsByWorkOrder failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("Expected 1 item detail, got %d", len(views))
	}
	if views[0].RemainingQuantity != 10 {
		t.Errorf("Expected remaining 10, got %v", views[0].RemainingQuantity)
	}
	if len(views[0].Allocations) != 0 {
		t.Errorf("Expected no allocations, got %d", len(views[0].Allocations))
	}
}

func TestAddItemValidation(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	master := testutil.SeedItemMaster(t, db, "im-001", "ITM-001")

	// 数量必须为正
	if _, err := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 0,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for zero quantity, got %v", err)
	}

	// 停用主数据不可使用
	db.Model(master).Update("is_active", false)
	if _, err := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 1,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for disabled master, got %v", err)
	}
}

func TestAllocateWithinCapacity(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")
	seedStep(t, db, "step-001", "wo-001")

	item, err := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if _, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 4,
	}); err != nil {
		t.Fatalf("First allocation failed: %v", err)
	}
	if _, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 6,
	}); err != nil {
		t.Fatalf("Second allocation failed: %v", err)
	}

	// 容量用尽，继续分配失败且不留台账行
	if _, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 1,
	}); !errors.Is(err, repository.ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}

	views, err := svc.GetItemDetailsByWorkOrder(ctx, "wo-001")
	if err != nil {
		t.Fatalf("GetItemDetailsByWorkOrder failed: %v", err)
	}
	if views[0].RemainingQuantity != 0 {
		t.Errorf("Expected remaining 0, got %v", views[0].RemainingQuantity)
	}
	if len(views[0].Allocations) != 2 {
		t.Errorf("Expected 2 allocation rows, got %d", len(views[0].Allocations))
	}

	allocs, err := svc.ListAllocationsByDetail(ctx, entity.DetailTypeItem, item.ID)
	if err != nil {
		t.Fatalf("ListAllocationsByDetail failed: %v", err)
	}
	if len(allocs) != 2 {
		t.Errorf("Expected 2 allocations for detail, got %d", len(allocs))
	}
	if _, err := svc.ListAllocationsByDetail(ctx, "bogus", item.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for bad detail type, got %v", err)
	}
}

func TestAllocateValidation(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")

	if _, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: "x", WorkflowStepID: "s", Quantity: -1,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for negative quantity, got %v", err)
	}

	if _, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: "bogus", DetailID: "x", WorkflowStepID: "s", Quantity: 1,
	}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for bad detail type, got %v", err)
	}

	if _, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: "missing", WorkflowStepID: "s", Quantity: 1,
	}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing detail, got %v", err)
	}
}

// 并发分配同一明细：成功的分配总量不能超过明细数量
func TestConcurrentAllocations(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")
	seedStep(t, db, "step-001", "wo-001")

	item, err := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
				DetailType: entity.DetailTypeItem, DetailID: item.ID,
				WorkflowStepID: "step-001", Quantity: 1,
			})
		}(i)
	}
	wg.Wait()

	succeeded, capacityErrs := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, repository.ErrCapacityExceeded):
			capacityErrs++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 10 {
		t.Errorf("Expected exactly 10 successful allocations, got %d", succeeded)
	}
	if capacityErrs != 10 {
		t.Errorf("Expected 10 capacity errors, got %d", capacityErrs)
	}

	// 台账总和与物化列一致
	allocRepo := repository.NewAllocationRepository(db)
	sum, err := allocRepo.SumByDetail(ctx, entity.DetailTypeItem, item.ID)
	if err != nil {
		t.Fatalf("SumByDetail failed: %v", err)
	}
	if sum != 10 {
		t.Errorf("Expected ledger sum 10, got %v", sum)
	}

	detailRepo := repository.NewDetailRepository(db)
	got, err := detailRepo.FindItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindItemByID failed: %v", err)
	}
	if got.AllocatedQuantity != 10 {
		t.Errorf("Expected allocated_quantity 10, got %v", got.AllocatedQuantity)
	}
}

// 分配必须落在明细所属的工单上，其他工单的路径不能借用
func TestAllocateRejectsForeignDetail(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Order One", "test-user-001")
	testutil.SeedWorkOrder(t, db, "wo-002", "WO-202508-0002", "Order Two", "test-user-001")
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")
	seedStep(t, db, "step-001", "wo-001")

	item, err := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	// 通过另一个工单的路径分配wo-001的明细
	if _, err := svc.Allocate(ctx, "wo-002", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 3,
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for foreign detail, got %v", err)
	}

	// 被拒后不留台账行、不占容量
	allocRepo := repository.NewAllocationRepository(db)
	sum, err := allocRepo.SumByDetail(ctx, entity.DetailTypeItem, item.ID)
	if err != nil {
		t.Fatalf("SumByDetail failed: %v", err)
	}
	if sum != 0 {
		t.Errorf("Expected no ledger rows, got sum %v", sum)
	}
	detailRepo := repository.NewDetailRepository(db)
	got, err := detailRepo.FindItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindItemByID failed: %v", err)
	}
	if got.AllocatedQuantity != 0 {
		t.Errorf("Expected allocated_quantity 0, got %v", got.AllocatedQuantity)
	}
}

func TestUpdateAllocation(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	testutil.SeedSpecMaster(t, db, "sm-001", "SPC-001")
	seedStep(t, db, "step-001", "wo-001")

	spec, err := svc.AddSpec(ctx, "wo-001", "test-user-001", &AddSpecRequest{
		SpecMasterID: "sm-001", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("AddSpec failed: %v", err)
	}

	alloc, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeSpec, DetailID: spec.ID,
		WorkflowStepID: "step-001", Quantity: 6,
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// 调大超过剩余容量（剩余4，6→12需要再预留6）被拒绝
	if _, err := svc.UpdateAllocation(ctx, alloc.ID, "test-user-001", 12); !errors.Is(err, repository.ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded, got %v", err)
	}

	// 调大到上限内
	updated, err := svc.UpdateAllocation(ctx, alloc.ID, "test-user-001", 9)
	if err != nil {
		t.Fatalf("UpdateAllocation failed: %v", err)
	}
	if updated.AllocatedQuantity != 9 {
		t.Errorf("Expected quantity 9, got %v", updated.AllocatedQuantity)
	}

	// 调小释放容量
	if _, err := svc.UpdateAllocation(ctx, alloc.ID, "test-user-001", 3); err != nil {
		t.Fatalf("UpdateAllocation (shrink) failed: %v", err)
	}
	views, _ := svc.GetSpecDetailsByWorkOrder(ctx, "wo-001")
	if views[0].RemainingQuantity != 7 {
		t.Errorf("Expected remaining 7 after shrink, got %v", views[0].RemainingQuantity)
	}
}

// 并发调整同一分配行：差额基于行锁下的当前值计算，
// 无论交错顺序如何，台账行数量始终等于明细上的物化列
func TestConcurrentAllocationUpdates(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")
	seedStep(t, db, "step-001", "wo-001")

	item, err := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	alloc, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 6,
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// 混合调大调小，目标值交替为2和8
	const workers = 16
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			target := float64(2)
			if idx%2 == 0 {
				target = 8
			}
			_, results[idx] = svc.UpdateAllocation(ctx, alloc.ID, "test-user-001", target)
		}(i)
	}
	wg.Wait()

	for _, err := range results {
		if err != nil && !errors.Is(err, repository.ErrCapacityExceeded) {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	allocRepo := repository.NewAllocationRepository(db)
	row, err := allocRepo.FindByID(ctx, alloc.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	detailRepo := repository.NewDetailRepository(db)
	got, err := detailRepo.FindItemByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindItemByID failed: %v", err)
	}

	// 台账行与物化列一致，且不超过明细数量
	if row.AllocatedQuantity != got.AllocatedQuantity {
		t.Errorf("Ledger row %v diverged from materialized column %v",
			row.AllocatedQuantity, got.AllocatedQuantity)
	}
	if got.AllocatedQuantity > got.Quantity {
		t.Errorf("Allocated %v exceeds detail quantity %v", got.AllocatedQuantity, got.Quantity)
	}
	sum, err := allocRepo.SumByDetail(ctx, entity.DetailTypeItem, item.ID)
	if err != nil {
		t.Fatalf("SumByDetail failed: %v", err)
	}
	if sum != got.AllocatedQuantity {
		t.Errorf("Ledger sum %v diverged from materialized column %v", sum, got.AllocatedQuantity)
	}
}

func TestDeleteAllocationRestoresCapacity(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")
	seedStep(t, db, "step-001", "wo-001")

	item, _ := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 5,
	})
	alloc, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 5,
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if err := svc.DeleteAllocation(ctx, alloc.ID, "test-user-001"); err != nil {
		t.Fatalf("DeleteAllocation failed: %v", err)
	}

	// 容量恢复后可以重新全额分配
	if _, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 5,
	}); err != nil {
		t.Fatalf("Re-allocation after delete failed: %v", err)
	}
}

func TestDeleteDetailBlockedByAllocations(t *testing.T) {
	db, svc := setupDetailTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")
	seedStep(t, db, "step-001", "wo-001")

	item, _ := svc.AddItem(ctx, "wo-001", "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 5,
	})
	alloc, err := svc.Allocate(ctx, "wo-001", "test-user-001", &AllocateRequest{
		DetailType: entity.DetailTypeItem, DetailID: item.ID,
		WorkflowStepID: "step-001", Quantity: 2,
	})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if err := svc.DeleteDetail(ctx, entity.DetailTypeItem, item.ID); !errors.Is(err, repository.ErrHasAllocations) {
		t.Fatalf("Expected ErrHasAllocations, got %v", err)
	}

	if err := svc.DeleteAllocation(ctx, alloc.ID, "test-user-001"); err != nil {
		t.Fatalf("DeleteAllocation failed: %v", err)
	}
	if err := svc.DeleteDetail(ctx, entity.DetailTypeItem, item.ID); err != nil {
		t.Fatalf("DeleteDetail after releasing allocations failed: %v", err)
	}

	views, _ := svc.GetItemDetailsByWorkOrder(ctx, "wo-001")
	if len(views) != 0 {
		t.Errorf("Expected no item details after delete, got %d", len(views))
	}
}
