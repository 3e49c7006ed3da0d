package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"mining-invest-go/internal/accrual"
	"mining-invest-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	service := NewServiceFromDB(db)
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}
	return service, cleanup
}

// seedSubscription creates a miner, server, contract and subscription with
// the given deposit, returning the subscription and contract ids.
func seedSubscription(t *testing.T, s *Service, percent string, period string, deposited string) (string, string) {
	t.Helper()
	ctx := context.Background()

	miner, err := s.CreateMiner(ctx, "Test Miner", "miner-"+percent+"-"+deposited+"@example.com")
	if err != nil {
		t.Fatalf("Failed to create miner: %v", err)
	}
	server, err := s.CreateServer(ctx, "Rig A", "Reykjavik", "110 TH/s")
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	contract, err := s.CreateContract(ctx, store.CreateContractParams{
		ServerId:            server.Id,
		Name:                "Standard",
		PeriodReturnPercent: decimal.RequireFromString(percent),
		Period:              period,
	})
	if err != nil {
		t.Fatalf("Failed to create contract: %v", err)
	}
	sub, err := s.CreateSubscription(ctx, miner.Id, contract.Id, true)
	if err != nil {
		t.Fatalf("Failed to create subscription: %v", err)
	}

	if deposited != "0" {
		tx, err := s.CreateTransaction(ctx, store.CreateTransactionParams{
			MinerId:        miner.Id,
			SubscriptionId: sub.Id,
			Type:           "deposit",
			Method:         "bank",
			Amount:         decimal.RequireFromString(deposited),
		})
		if err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}
		if _, err := s.ConfirmTransaction(ctx, tx.Id); err != nil {
			t.Fatalf("Failed to confirm deposit: %v", err)
		}
	}
	return sub.Id, contract.Id
}

func TestAppendEarning_AdvancesRunningTotal(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "1000")

	earning, err := service.AppendEarning(ctx, store.AppendEarningParams{
		SubscriptionId: subId,
		Amount:         decimal.RequireFromString("10.00"),
		AccrualDate:    "2026-03-14",
	})
	if err != nil {
		t.Fatalf("AppendEarning failed: %v", err)
	}
	if !earning.Amount.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Expected amount 10.00, got %s", earning.Amount.String())
	}

	sub, err := service.GetSubscriptionById(ctx, subId)
	if err != nil {
		t.Fatalf("GetSubscriptionById failed: %v", err)
	}
	if !sub.TotalEarnings.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Expected running total 10.00, got %s", sub.TotalEarnings.String())
	}
	if sub.Version != 3 { // 1 create, 2 deposit, 3 earning
		t.Errorf("Expected version 3 after deposit and earning, got %d", sub.Version)
	}
}

func TestAppendEarning_DuplicateDayRejected(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "1000")

	params := store.AppendEarningParams{
		SubscriptionId: subId,
		Amount:         decimal.RequireFromString("10.00"),
		AccrualDate:    "2026-03-14",
	}
	if _, err := service.AppendEarning(ctx, params); err != nil {
		t.Fatalf("First AppendEarning failed: %v", err)
	}

	_, err := service.AppendEarning(ctx, params)
	if !errors.Is(err, store.ErrDuplicateAccrual) {
		t.Fatalf("Expected ErrDuplicateAccrual, got: %v", err)
	}

	// The running total must be untouched by the rejected append.
	sub, _ := service.GetSubscriptionById(ctx, subId)
	if !sub.TotalEarnings.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Expected running total 10.00 after duplicate rejection, got %s", sub.TotalEarnings.String())
	}
}

func TestAppendEarning_NegativeAmountRejected(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	subId, _ := seedSubscription(t, service, "7", "weekly", "1000")
	_, err := service.AppendEarning(context.Background(), store.AppendEarningParams{
		SubscriptionId: subId,
		Amount:         decimal.RequireFromString("-5"),
		AccrualDate:    "2026-03-14",
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation, got: %v", err)
	}
}

func TestSumEarnings_MatchesLedger(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "1000")

	days := []string{"2026-03-14", "2026-03-15", "2026-03-16"}
	for _, day := range days {
		if _, err := service.AppendEarning(ctx, store.AppendEarningParams{
			SubscriptionId: subId,
			Amount:         decimal.RequireFromString("10.00"),
			AccrualDate:    day,
		}); err != nil {
			t.Fatalf("AppendEarning(%s) failed: %v", day, err)
		}
	}

	total, err := service.SumEarnings(ctx, subId)
	if err != nil {
		t.Fatalf("SumEarnings failed: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("30.00")) {
		t.Errorf("Expected ledger sum 30.00, got %s", total.String())
	}

	if err := service.ReconcileSubscriptionEarnings(ctx, subId); err != nil {
		t.Errorf("Reconcile failed on a consistent subscription: %v", err)
	}
}

func TestReconcile_DetectsDrift(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "1000")

	if _, err := service.AppendEarning(ctx, store.AppendEarningParams{
		SubscriptionId: subId,
		Amount:         decimal.RequireFromString("10.00"),
		AccrualDate:    "2026-03-14",
	}); err != nil {
		t.Fatalf("AppendEarning failed: %v", err)
	}

	// Simulate a manual admin adjustment that bypassed the ledger.
	if _, err := service.db.Exec(
		`UPDATE mining_subscriptions SET total_earnings = '99.00' WHERE id = ?`, subId); err != nil {
		t.Fatalf("Failed to inject drift: %v", err)
	}

	if err := service.ReconcileSubscriptionEarnings(ctx, subId); err == nil {
		t.Error("Expected reconcile to detect drift")
	}
}

func TestAccrualRunStatus_Singleton(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	last, err := service.GetLastAccrualRun(ctx)
	if err != nil {
		t.Fatalf("GetLastAccrualRun failed: %v", err)
	}
	if last != nil {
		t.Errorf("Expected nil before first run, got %v", last)
	}

	first := time.Date(2026, 3, 14, 0, 5, 0, 0, time.UTC)
	if err := service.SetLastAccrualRun(ctx, first); err != nil {
		t.Fatalf("SetLastAccrualRun failed: %v", err)
	}

	second := first.Add(24 * time.Hour)
	if err := service.SetLastAccrualRun(ctx, second); err != nil {
		t.Fatalf("Second SetLastAccrualRun failed: %v", err)
	}

	last, err = service.GetLastAccrualRun(ctx)
	if err != nil {
		t.Fatalf("GetLastAccrualRun failed: %v", err)
	}
	if last == nil || !last.Equal(second) {
		t.Errorf("Expected last run %v, got %v", second, last)
	}
}

// End-to-end: the batch driver over the real SQLite store.
func TestDailyAccrual_EndToEnd(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "1000")

	fixed := time.Date(2026, 3, 14, 0, 5, 0, 0, time.UTC)
	runner := accrual.NewRunner(accrual.RunnerConfig{
		Backend: service,
		Now:     func() time.Time { return fixed },
	})

	summary, err := runner.RunDailyAccrual(ctx)
	if err != nil {
		t.Fatalf("RunDailyAccrual failed: %v", err)
	}
	if summary.Processed != 1 || summary.Failed != 0 {
		t.Fatalf("Expected processed=1, got %+v", summary)
	}

	// 1000 at 7%/weekly is 1%/day = 10.00.
	sub, err := service.GetSubscriptionById(ctx, subId)
	if err != nil {
		t.Fatalf("GetSubscriptionById failed: %v", err)
	}
	if !sub.TotalEarnings.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Expected total earnings 10.00, got %s", sub.TotalEarnings.String())
	}

	// Same-day rerun must be a per-item no-op.
	rerun, err := runner.RunDailyAccrual(ctx)
	if err != nil {
		t.Fatalf("Rerun failed: %v", err)
	}
	if rerun.Processed != 0 || rerun.Skipped != 1 {
		t.Errorf("Expected same-day rerun skipped=1, got %+v", rerun)
	}

	earnings, err := service.GetEarnings(ctx, subId, 10, 0)
	if err != nil {
		t.Fatalf("GetEarnings failed: %v", err)
	}
	if len(earnings) != 1 {
		t.Errorf("Expected 1 ledger row, got %d", len(earnings))
	}

	last, err := service.GetLastAccrualRun(ctx)
	if err != nil {
		t.Fatalf("GetLastAccrualRun failed: %v", err)
	}
	if last == nil || !last.Equal(fixed) {
		t.Errorf("Expected run status %v, got %v", fixed, last)
	}
}
