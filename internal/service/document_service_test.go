package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vinuthas0102/WO-Module-sub004/internal/config"
	"github.com/vinuthas0102/WO-Module-sub004/internal/entity"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"github.com/vinuthas0102/WO-Module-sub004/internal/testutil"
	"gorm.io/gorm"
)

func setupDocumentTest(t *testing.T) (*gorm.DB, *DocumentService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	// MinIO客户端为nil: 只测元数据路径
	svc := NewDocumentService(repos.Document, repos.OperationLog, nil, "wo-docs", config.UploadConfig{
		MaxSizeBytes:  5 * 1024 * 1024,
		PresignExpire: time.Hour,
		AllowedTypes:  config.DefaultAllowedTypes,
	})
	return db, svc
}

func TestValidateFile(t *testing.T) {
	_, svc := setupDocumentTest(t)

	if err := svc.ValidateFile(1024, "application/pdf"); err != nil {
		t.Errorf("PDF within size limit should pass, got %v", err)
	}
	if err := svc.ValidateFile(5*1024*1024+1, "application/pdf"); !errors.Is(err, ErrValidation) {
		t.Errorf("Oversized file should fail, got %v", err)
	}
	if err := svc.ValidateFile(1024, "application/x-msdownload"); !errors.Is(err, ErrValidation) {
		t.Errorf("Disallowed MIME type should fail, got %v", err)
	}
	if err := svc.ValidateFile(1024, "image/png"); err != nil {
		t.Errorf("PNG should pass, got %v", err)
	}
}

func seedProgressDoc(t *testing.T, db *gorm.DB, id, workOrderID, uploadedBy string) *entity.ProgressDocument {
	t.Helper()
	doc := &entity.ProgressDocument{
		ID:          id,
		WorkOrderID: workOrderID,
		FileName:    "report.pdf",
		FilePath:    "wo/progress/" + workOrderID + "/report.pdf",
		FileSize:    2048,
		MimeType:    "application/pdf",
		UploadedBy:  uploadedBy,
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("Failed to seed progress document: %v", err)
	}
	return doc
}

func TestSoftDeleteProgress(t *testing.T) {
	db, svc := setupDocumentTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	doc := seedProgressDoc(t, db, "pd-001", "wo-001", "test-user-001")

	// 原因太短被拒绝
	if err := svc.SoftDeleteProgress(ctx, doc.ID, "test-user-001", "bad", false); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for short reason, got %v", err)
	}

	// 非上传者且非管理员被拒绝
	if err := svc.SoftDeleteProgress(ctx, doc.ID, "other-user", "superseded by v2", false); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied, got %v", err)
	}

	if err := svc.SoftDeleteProgress(ctx, doc.ID, "test-user-001", "superseded by v2", false); err != nil {
		t.Fatalf("SoftDeleteProgress failed: %v", err)
	}

	// 删除标记、原因与审计日志ID均已写入
	var got entity.ProgressDocument
	if err := db.Where("id = ?", doc.ID).First(&got).Error; err != nil {
		t.Fatalf("Reload progress document failed: %v", err)
	}
	if !got.IsDeleted {
		t.Errorf("Expected is_deleted true")
	}
	if got.DeleteReason != "superseded by v2" {
		t.Errorf("Expected delete reason recorded, got %q", got.DeleteReason)
	}
	if got.OperationLogID == "" {
		t.Errorf("Expected linked operation log ID")
	}
	var logRow entity.OperationLog
	if err := db.Where("id = ?", got.OperationLogID).First(&logRow).Error; err != nil {
		t.Errorf("Expected audit log row to exist: %v", err)
	} else if logRow.Action != entity.ActionSoftDeleteDoc {
		t.Errorf("Expected action %s, got %s", entity.ActionSoftDeleteDoc, logRow.Action)
	}

	// 重复删除返回ErrNotFound
	if err := svc.SoftDeleteProgress(ctx, doc.ID, "test-user-001", "superseded again", true); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}

	// 默认列表排除已删除，includeDeleted=true包含
	visible, err := svc.ListProgress(ctx, "wo-001", false)
	if err != nil {
		t.Fatalf("ListProgress failed: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("Expected deleted document hidden, got %d rows", len(visible))
	}
	all, _ := svc.ListProgress(ctx, "wo-001", true)
	if len(all) != 1 {
		t.Errorf("Expected 1 row with include_deleted, got %d", len(all))
	}
}

func seedDocument(t *testing.T, db *gorm.DB, id, scopeID, filePath string) *entity.Document {
	t.Helper()
	doc := &entity.Document{
		ID:         id,
		ScopeType:  entity.DocumentScopeWorkOrder,
		ScopeID:    scopeID,
		FileName:   id + ".pdf",
		FilePath:   filePath,
		FileSize:   1024,
		MimeType:   "application/pdf",
		UploadedBy: "test-user-001",
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("Failed to seed document: %v", err)
	}
	return doc
}

func TestCopyAttachmentsPartialFailure(t *testing.T) {
	db, svc := setupDocumentTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-src", "WO-202508-0001", "Source", "test-user-001")
	testutil.SeedWorkOrder(t, db, "wo-dst", "WO-202508-0002", "Target", "test-user-001")

	seedDocument(t, db, "doc-1", "wo-src", "wo/work_order/wo-src/a.pdf")
	seedDocument(t, db, "doc-2", "wo-src", "wo/work_order/wo-src/b.pdf")
	// 损坏的元数据行: 对象路径为空，复制时单行失败
	seedDocument(t, db, "doc-3", "wo-src", "")

	result, err := svc.CopyAttachments(ctx, "wo-src", "wo-dst", "test-user-001")
	if err != nil {
		t.Fatalf("CopyAttachments failed: %v", err)
	}

	if result.SuccessCount != 2 {
		t.Errorf("Expected 2 copied, got %d", result.SuccessCount)
	}
	if result.FailedCount != 1 {
		t.Errorf("Expected 1 failure, got %d", result.FailedCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].FileName != "doc-3.pdf" {
		t.Errorf("Expected failure entry for doc-3.pdf, got %+v", result.Failures)
	}

	// 成功的文件在目标工单下有独立元数据行
	copied, err := svc.List(ctx, entity.DocumentScopeWorkOrder, "wo-dst")
	if err != nil {
		t.Fatalf("List target documents failed: %v", err)
	}
	if len(copied) != 2 {
		t.Errorf("Expected 2 documents on target, got %d", len(copied))
	}
	for _, d := range copied {
		if d.FilePath == "wo/work_order/wo-src/a.pdf" || d.FilePath == "wo/work_order/wo-src/b.pdf" {
			t.Errorf("Copied document must not share source object path: %s", d.FilePath)
		}
	}

	// 复制动作写入审计日志
	var logs []entity.OperationLog
	db.Where("entity_type = ? AND entity_id = ?", "work_order", "wo-dst").Find(&logs)
	if len(logs) != 1 || logs[0].Action != entity.ActionCopyAttachments {
		t.Errorf("Expected one copy_attachments log, got %+v", logs)
	}
}

func TestDocumentDeletePermission(t *testing.T) {
	db, svc := setupDocumentTest(t)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, db, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")
	doc := seedDocument(t, db, "doc-1", "wo-001", "wo/work_order/wo-001/a.pdf")

	if err := svc.Delete(ctx, doc.ID, "other-user", false); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected ErrPermissionDenied for non-uploader, got %v", err)
	}
	// 管理员可删
	if err := svc.Delete(ctx, doc.ID, "other-user", true); err != nil {
		t.Errorf("Admin delete failed: %v", err)
	}
}
