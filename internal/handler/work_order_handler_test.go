package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/vinuthas0102/WO-Module-sub004/internal/config"
	"github.com/vinuthas0102/WO-Module-sub004/internal/repository"
	"github.com/vinuthas0102/WO-Module-sub004/internal/service"
	"github.com/vinuthas0102/WO-Module-sub004/internal/testutil"
)

func setupWorkOrderHandlerTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:             testutil.JWTSecret,
			AccessTokenExpire:  2 * time.Hour,
			RefreshTokenExpire: 7 * 24 * time.Hour,
			Issuer:             "wo-module",
		},
		Upload: config.UploadConfig{
			MaxSizeBytes:  5 * 1024 * 1024,
			PresignExpire: time.Hour,
			AllowedTypes:  config.DefaultAllowedTypes,
		},
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, cfg)
	handlers := NewHandlers(services, repos, cfg)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/work-orders", handlers.WorkOrder.Create)
	api.GET("/work-orders", handlers.WorkOrder.List)
	api.GET("/work-orders/:id", handlers.WorkOrder.Get)
	api.POST("/work-orders/:id/approvals", handlers.WorkOrder.SubmitApproval)
	api.GET("/work-orders/:id/approvals", handlers.WorkOrder.ListApprovals)
	api.POST("/approvals/:id/approve", handlers.WorkOrder.Approve)
	api.POST("/approvals/:id/reject", handlers.WorkOrder.Reject)
	api.POST("/work-orders/:id/steps/bulk", handlers.Step.BulkCreate)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestWorkOrderCreateAndGet(t *testing.T) {
	env := setupWorkOrderHandlerTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", "admin@test.com")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders",
		map[string]interface{}{
			"title":       "Line 4 maintenance",
			"description": "Quarterly service",
			"priority":    "high",
		}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != "draft" {
		t.Errorf("Expected draft status, got %v", data["status"])
	}
	woID := data["id"].(string)

	w2 := testutil.DoRequest(env.Router, "GET", "/api/v1/work-orders/"+woID, nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	// 缺少标题 → 400
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders",
		map[string]interface{}{"description": "no title"}, token)
	if w3.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing title, got %d", w3.Code)
	}

	// 未带token → 401
	w4 := testutil.DoRequest(env.Router, "GET", "/api/v1/work-orders", nil, "")
	if w4.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w4.Code)
	}
}

func TestApprovalRejectViaAPI(t *testing.T) {
	env := setupWorkOrderHandlerTest(t)
	testutil.SeedTestUser(t, env.DB, "requester", "Requester", "req@test.com")
	testutil.SeedTestUser(t, env.DB, "approver", "Approver", "appr@test.com")

	requesterToken := testutil.GenerateTestToken("requester", "Requester", "req@test.com", nil)
	approverToken := testutil.GenerateTestToken("approver", "Approver", "appr@test.com", nil)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders",
		map[string]interface{}{"title": "Order needing budget"}, requesterToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	woID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/approvals",
		map[string]interface{}{"amount": 9000}, requesterToken)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for approval submit, got %d: %s", w2.Code, w2.Body.String())
	}
	approvalID := testutil.ParseResponse(w2)["data"].(map[string]interface{})["id"].(string)

	// 申请人自批 → 403
	w3 := testutil.DoRequest(env.Router, "POST", "/api/v1/approvals/"+approvalID+"/approve", nil, requesterToken)
	if w3.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for self-approval, got %d: %s", w3.Code, w3.Body.String())
	}

	// 驳回原因过短 → 400
	w4 := testutil.DoRequest(env.Router, "POST", "/api/v1/approvals/"+approvalID+"/reject",
		map[string]interface{}{"reason": "too costly"}, approverToken)
	if w4.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short reason, got %d: %s", w4.Code, w4.Body.String())
	}

	// 合规驳回 → 200
	w5 := testutil.DoRequest(env.Router, "POST", "/api/v1/approvals/"+approvalID+"/reject",
		map[string]interface{}{"reason": "amount exceeds remaining quarterly maintenance budget"}, approverToken)
	if w5.Code != http.StatusOK {
		t.Fatalf("Expected 200 for reject, got %d: %s", w5.Code, w5.Body.String())
	}

	w6 := testutil.DoRequest(env.Router, "GET", "/api/v1/work-orders/"+woID, nil, requesterToken)
	status := testutil.ParseResponse(w6)["data"].(map[string]interface{})["status"]
	if status != "rejected" {
		t.Errorf("Expected work order rejected, got %v", status)
	}
}

func TestBulkCreateStepsViaAPI(t *testing.T) {
	env := setupWorkOrderHandlerTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestUser(t, env.DB, "test-user-001", "Test Admin", "admin@test.com")
	testutil.SeedWorkOrder(t, env.DB, "wo-001", "WO-202508-0001", "Test Order", "test-user-001")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/wo-001/steps/bulk",
		map[string]interface{}{
			"steps": []map[string]interface{}{
				{"title": "Excavation", "level1": 1},
				{"title": "", "level1": 2},
				{"title": "Backfill", "level1": 3},
			},
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["success_count"].(float64) != 2 {
		t.Errorf("Expected 2 successes, got %v", data["success_count"])
	}
	if data["failed_count"].(float64) != 1 {
		t.Errorf("Expected 1 failure, got %v", data["failed_count"])
	}
	results := data["results"].([]interface{})
	row1 := results[1].(map[string]interface{})
	if row1["success"].(bool) || row1["error"] == "" {
		t.Errorf("Expected row 1 to fail with reason, got %+v", row1)
	}
}
