package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mining-invest-go/internal/accrual"
	"mining-invest-go/internal/database"
	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestAPI(t *testing.T) (*gin.Engine, *database.Service, func()) {
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	service := database.NewServiceFromDB(db)
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	runner := accrual.NewRunner(accrual.RunnerConfig{
		Backend: service,
		Now:     func() time.Time { return time.Date(2026, 3, 14, 0, 5, 0, 0, time.UTC) },
	})
	router := NewService(service, runner).Router()

	cleanup := func() {
		db.Close()
	}
	return router, service, cleanup
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedFundedSubscription(t *testing.T, service *database.Service) string {
	t.Helper()
	ctx := context.Background()

	miner, err := service.CreateMiner(ctx, "API Miner", "api@example.com")
	if err != nil {
		t.Fatalf("CreateMiner failed: %v", err)
	}
	server, err := service.CreateServer(ctx, "Rig C", "Quebec", "120 TH/s")
	if err != nil {
		t.Fatalf("CreateServer failed: %v", err)
	}
	contract, err := service.CreateContract(ctx, store.CreateContractParams{
		ServerId:            server.Id,
		Name:                "Standard",
		PeriodReturnPercent: decimal.RequireFromString("7"),
		Period:              "weekly",
	})
	if err != nil {
		t.Fatalf("CreateContract failed: %v", err)
	}
	sub, err := service.CreateSubscription(ctx, miner.Id, contract.Id, true)
	if err != nil {
		t.Fatalf("CreateSubscription failed: %v", err)
	}
	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        miner.Id,
		SubscriptionId: sub.Id,
		Type:           "deposit",
		Method:         "bank",
		Amount:         decimal.RequireFromString("1000"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := service.ConfirmTransaction(ctx, tx.Id); err != nil {
		t.Fatalf("ConfirmTransaction failed: %v", err)
	}
	return sub.Id
}

func TestProcessDailyEndpoint(t *testing.T) {
	router, service, cleanup := setupTestAPI(t)
	defer cleanup()

	seedFundedSubscription(t, service)

	w := doJSON(t, router, http.MethodPost, "/earnings/process-daily", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary models.AccrualSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.Processed != 1 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("Expected processed=1, got %+v", summary)
	}

	// Same day again: the uniqueness guard reports a skip, still 200.
	w = doJSON(t, router, http.MethodPost, "/earnings/process-daily", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on rerun, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.Processed != 0 || summary.Skipped != 1 {
		t.Errorf("Expected rerun skipped=1, got %+v", summary)
	}

	w = doJSON(t, router, http.MethodGet, "/earnings/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from status, got %d", w.Code)
	}
	var status models.AccrualStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status.LastRunAt == nil {
		t.Error("Expected last_run_at to be set after a pass")
	}
}

func TestSubscriptionDetailEndpoint(t *testing.T) {
	router, service, cleanup := setupTestAPI(t)
	defer cleanup()

	subId := seedFundedSubscription(t, service)
	if w := doJSON(t, router, http.MethodPost, "/earnings/process-daily", nil); w.Code != http.StatusOK {
		t.Fatalf("Accrual pass failed: %d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/subscriptions/"+subId, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var detail struct {
		Subscription struct {
			TotalEarnings string `json:"total_earnings"`
		} `json:"subscription"`
		LedgerTotal string `json:"ledger_total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("Failed to decode detail: %v", err)
	}
	if detail.LedgerTotal != "10" {
		t.Errorf("Expected ledger total 10, got %q", detail.LedgerTotal)
	}
	// The running total rides along in the snake_case wire format and
	// agrees with the ledger sum.
	if detail.Subscription.TotalEarnings != "10" {
		t.Errorf("Expected total_earnings 10, got %q", detail.Subscription.TotalEarnings)
	}

	w = doJSON(t, router, http.MethodGet, "/subscriptions/no-such-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown subscription, got %d", w.Code)
	}
}

func TestKycApproval_RequiresFee(t *testing.T) {
	router, service, cleanup := setupTestAPI(t)
	defer cleanup()

	ctx := context.Background()
	miner, err := service.CreateMiner(ctx, "Kyc Miner", "kyc-api@example.com")
	if err != nil {
		t.Fatalf("CreateMiner failed: %v", err)
	}

	if w := doJSON(t, router, http.MethodPost, "/kyc/"+miner.Id+"/submit", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from submit, got %d", w.Code)
	}

	// Fee unpaid: approval is refused.
	if w := doJSON(t, router, http.MethodPost, "/kyc/"+miner.Id+"/approve", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 approving unpaid miner, got %d", w.Code)
	}

	fee, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId: miner.Id,
		Type:    "kyc_fee",
		Method:  "bank",
		Amount:  decimal.RequireFromString("25"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := service.ConfirmTransaction(ctx, fee.Id); err != nil {
		t.Fatalf("ConfirmTransaction failed: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/kyc/"+miner.Id+"/approve", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 after fee paid, got %d: %s", w.Code, w.Body.String())
	}

	miner, err = service.GetMinerById(ctx, miner.Id)
	if err != nil {
		t.Fatalf("GetMinerById failed: %v", err)
	}
	if miner.KycStatus != models.KycStatusApproved {
		t.Errorf("Expected approved, got %s", miner.KycStatus)
	}
}

func TestCreateContractEndpoint_RejectsUnknownPeriod(t *testing.T) {
	router, service, cleanup := setupTestAPI(t)
	defer cleanup()

	server, err := service.CreateServer(context.Background(), "Rig D", "Oslo", "80 TH/s")
	if err != nil {
		t.Fatalf("CreateServer failed: %v", err)
	}

	w := doJSON(t, router, http.MethodPost, "/contracts", models.CreateContractRequest{
		ServerId:            server.Id,
		Name:                "Bad Period",
		PeriodReturnPercent: "5",
		Period:              "quarterly",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown period, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	router, _, cleanup := setupTestAPI(t)
	defer cleanup()

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from healthz, got %d", w.Code)
	}
}
