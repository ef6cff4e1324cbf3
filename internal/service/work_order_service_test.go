package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"github.com/vinuthas0102/WO-Module-sub004/internal/testutil"
	"gorm.io/gorm"
)

func setupWorkOrderTest(t *testing.T) (*gorm.DB, *WorkOrderService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewWorkOrderService(repos.WorkOrder, repos.Approval, repos.Detail, repos.OperationLog)
	return db, svc
}

func TestCreateWorkOrderGeneratesCode(t *testing.T) {
	db, svc := setupWorkOrderTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")

	wo1, err := svc.Create(ctx, "test-user-001", &CreateWorkOrderRequest{Title: "First order"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(wo1.Code, "WO-") {
		t.Errorf("Expected WO- prefixed code, got %s", wo1.Code)
	}
	if wo1.Status != entity.WorkOrderStatusDraft {
		t.Errorf("Expected draft status, got %s", wo1.Status)
	}

	wo2, err := svc.Create(ctx, "test-user-001", &CreateWorkOrderRequest{Title: "Second order"})
	if err != nil {
		t.Fatalf("Create second failed: %v", err)
	}
	if wo1.Code == wo2.Code {
		t.Errorf("Expected unique codes, both got %s", wo1.Code)
	}

	if _, err := svc.Create(ctx, "test-user-001", &CreateWorkOrderRequest{Title: "   "}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for blank title, got %v", err)
	}
}

func TestApprovalFlow(t *testing.T) {
	db, svc := setupWorkOrderTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "requester", "Requester", "req@test.com")
	testutil.SeedTestUser(t, db, "approver", "Approver", "appr@test.com")

	wo, err := svc.Create(ctx, "requester", &CreateWorkOrderRequest{Title: "Budgeted order"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	amount := 12500.0
	approval, err := svc.SubmitForApproval(ctx, wo.ID, "requester", &SubmitApprovalRequest{Amount: &amount})
	if err != nil {
		t.Fatalf("SubmitForApproval failed: %v", err)
	}

	// 重复提交被拒绝
	if _, err := svc.SubmitForApproval(ctx, wo.ID, "requester", &SubmitApprovalRequest{}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation on duplicate submission, got %v", err)
	}

	// 申请人不能自批
	if _, err := svc.Approve(ctx, approval.ID, "requester"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied for self-approval, got %v", err)
	}

	decided, err := svc.Approve(ctx, approval.ID, "approver")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if decided.Status != entity.ApprovalStatusApproved {
		t.Errorf("Expected approved, got %s", decided.Status)
	}

	got, _ := svc.Get(ctx, wo.ID)
	if got.Status != entity.WorkOrderStatusApproved {
		t.Errorf("Expected work order approved, got %s", got.Status)
	}

	// 已决审批不能再决
	if _, err := svc.Approve(ctx, approval.ID, "approver"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation on re-approve, got %v", err)
	}
}

func TestRejectRequiresDetailedReason(t *testing.T) {
	db, svc := setupWorkOrderTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "requester", "Requester", "req@test.com")
	testutil.SeedTestUser(t, db, "approver", "Approver", "appr@test.com")

	wo, _ := svc.Create(ctx, "requester", &CreateWorkOrderRequest{Title: "Order to reject"})
	approval, err := svc.SubmitForApproval(ctx, wo.ID, "requester", &SubmitApprovalRequest{})
	if err != nil {
		t.Fatalf("SubmitForApproval failed: %v", err)
	}

	// 驳回原因不足20字符
	if _, err := svc.Reject(ctx, approval.ID, "approver", "too expensive"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for short reason, got %v", err)
	}

	reason := "budget exceeds the approved quarterly allocation for this site"
	rejected, err := svc.Reject(ctx, approval.ID, "approver", reason)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.RejectReason != reason {
		t.Errorf("Expected reason persisted, got %q", rejected.RejectReason)
	}

	got, _ := svc.Get(ctx, wo.ID)
	if got.Status != entity.WorkOrderStatusRejected {
		t.Errorf("Expected work order rejected, got %s", got.Status)
	}

	// 审计历史含提交与驳回
	logs, err := svc.ListHistory(ctx, wo.ID, 10)
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	actions := make(map[string]bool)
	for _, l := range logs {
		actions[l.Action] = true
	}
	if !actions[entity.ActionSubmitApproval] || !actions[entity.ActionReject] {
		t.Errorf("Expected submit and reject actions in history, got %v", actions)
	}
}

func TestExportDetails(t *testing.T) {
	db, svc := setupWorkOrderTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	wo, _ := svc.Create(ctx, "test-user-001", &CreateWorkOrderRequest{Title: "Export order"})
	testutil.SeedItemMaster(t, db, "im-001", "ITM-001")

	repos := repository.NewRepositories(db)
	detailSvc := NewDetailService(repos.Detail, repos.Allocation, repos.ItemMaster, repos.SpecMaster, repos.OperationLog)
	if _, err := detailSvc.AddItem(ctx, wo.ID, "test-user-001", &AddItemRequest{
		ItemMasterID: "im-001", Quantity: 3,
	}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	f, fileName, err := svc.ExportDetails(ctx, wo.ID)
	if err != nil {
		t.Fatalf("ExportDetails failed: %v", err)
	}
	defer f.Close()

	if !strings.HasSuffix(fileName, "-details.xlsx") {
		t.Errorf("Unexpected export file name: %s", fileName)
	}
	cell, err := f.GetCellValue("Details", "B2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if cell != "ITM-001" {
		t.Errorf("Expected item code in export, got %q", cell)
	}
}
