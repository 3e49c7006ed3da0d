package database

import (
	"context"
	"errors"
	"testing"

	"mining-invest-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestConfirmDeposit_RaisesDepositedAmount(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "0")

	sub, _ := service.GetSubscriptionById(ctx, subId)
	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: subId,
		Type:           "deposit",
		Method:         "crypto",
		Amount:         decimal.RequireFromString("250.50"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if tx.Status != "pending" {
		t.Errorf("Expected new transaction to be pending, got %s", tx.Status)
	}

	confirmed, err := service.ConfirmTransaction(ctx, tx.Id)
	if err != nil {
		t.Fatalf("ConfirmTransaction failed: %v", err)
	}
	if confirmed.Status != "confirmed" {
		t.Errorf("Expected confirmed, got %s", confirmed.Status)
	}

	sub, _ = service.GetSubscriptionById(ctx, subId)
	if !sub.AmountDeposited.Equal(decimal.RequireFromString("250.50")) {
		t.Errorf("Expected deposited 250.50, got %s", sub.AmountDeposited.String())
	}
}

func TestConfirmTransaction_OnlyOnce(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "0")
	sub, _ := service.GetSubscriptionById(ctx, subId)

	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: subId,
		Type:           "deposit",
		Method:         "bank",
		Amount:         decimal.RequireFromString("100"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if _, err := service.ConfirmTransaction(ctx, tx.Id); err != nil {
		t.Fatalf("First confirm failed: %v", err)
	}
	if _, err := service.ConfirmTransaction(ctx, tx.Id); err == nil {
		t.Error("Expected second confirm of the same transaction to fail")
	}

	// A double confirm must not double-credit the deposit.
	sub, _ = service.GetSubscriptionById(ctx, subId)
	if !sub.AmountDeposited.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected deposited 100, got %s", sub.AmountDeposited.String())
	}
}

// Two racing confirms of the same deposit must credit it once. The loser
// reads the row while it is still pending, the winner confirms fully, and
// the loser's resumed confirm has to roll back instead of committing a
// second balance effect.
func TestConfirmTransaction_LostRaceLeavesBalanceAlone(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "0")
	sub, _ := service.GetSubscriptionById(ctx, subId)

	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: subId,
		Type:           "deposit",
		Method:         "bank",
		Amount:         decimal.RequireFromString("100"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	// Loser's snapshot, taken while the row is still pending.
	stale, err := service.GetTransactionById(ctx, tx.Id)
	if err != nil {
		t.Fatalf("GetTransactionById failed: %v", err)
	}

	// Winner confirms in full.
	if _, err := service.ConfirmTransaction(ctx, tx.Id); err != nil {
		t.Fatalf("ConfirmTransaction failed: %v", err)
	}

	// Loser resumes past its pending check with the stale snapshot.
	if err := service.confirmPending(ctx, stale); !errors.Is(err, store.ErrConcurrentModification) {
		t.Errorf("Expected ErrConcurrentModification for the losing confirm, got: %v", err)
	}

	sub, _ = service.GetSubscriptionById(ctx, subId)
	if !sub.AmountDeposited.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected deposited 100 after losing confirm rolled back, got %s", sub.AmountDeposited.String())
	}
}

func TestWithdrawal_LimitedToAvailableEarnings(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "1000")
	sub, _ := service.GetSubscriptionById(ctx, subId)

	// Two days of earnings: 20.00 withdrawable.
	for _, day := range []string{"2026-03-14", "2026-03-15"} {
		if _, err := service.AppendEarning(ctx, store.AppendEarningParams{
			SubscriptionId: subId,
			Amount:         decimal.RequireFromString("10.00"),
			AccrualDate:    day,
		}); err != nil {
			t.Fatalf("AppendEarning failed: %v", err)
		}
	}

	over, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: subId,
		Type:           "withdrawal",
		Method:         "bank",
		Amount:         decimal.RequireFromString("25.00"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := service.ConfirmTransaction(ctx, over.Id); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation confirming an over-limit withdrawal, got: %v", err)
	}

	within, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: subId,
		Type:           "withdrawal",
		Method:         "bank",
		Amount:         decimal.RequireFromString("15.00"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := service.ConfirmTransaction(ctx, within.Id); err != nil {
		t.Fatalf("Confirming an in-limit withdrawal failed: %v", err)
	}

	available, err := service.AvailableEarnings(ctx, subId)
	if err != nil {
		t.Fatalf("AvailableEarnings failed: %v", err)
	}
	if !available.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("Expected 5.00 available after withdrawal, got %s", available.String())
	}

	// Withdrawals never rewrite the earnings total, only the withdrawable
	// balance derived from it.
	sub, _ = service.GetSubscriptionById(ctx, subId)
	if !sub.TotalEarnings.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("Expected total earnings to stay 20.00, got %s", sub.TotalEarnings.String())
	}
}

func TestCreateTransaction_DuplicateExternalIdRejected(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "0")
	sub, _ := service.GetSubscriptionById(ctx, subId)

	params := store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: subId,
		Type:           "deposit",
		Method:         "crypto",
		Amount:         decimal.RequireFromString("50"),
		ExternalTxId:   "0xabc123",
	}
	if _, err := service.CreateTransaction(ctx, params); err != nil {
		t.Fatalf("First CreateTransaction failed: %v", err)
	}
	if _, err := service.CreateTransaction(ctx, params); !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Errorf("Expected ErrDuplicateTransaction, got: %v", err)
	}
}

func TestConfirmKycFee_MarksMinerPaid(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	miner, err := service.CreateMiner(ctx, "Kyc Miner", "kyc@example.com")
	if err != nil {
		t.Fatalf("CreateMiner failed: %v", err)
	}

	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId: miner.Id,
		Type:    "kyc_fee",
		Method:  "bank",
		Amount:  decimal.RequireFromString("25"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := service.ConfirmTransaction(ctx, tx.Id); err != nil {
		t.Fatalf("ConfirmTransaction failed: %v", err)
	}

	miner, err = service.GetMinerById(ctx, miner.Id)
	if err != nil {
		t.Fatalf("GetMinerById failed: %v", err)
	}
	if !miner.KycFeePaid {
		t.Error("Expected kyc fee to be marked paid after confirmation")
	}
}

func TestRejectTransaction_LeavesBalancesAlone(t *testing.T) {
	service, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	subId, _ := seedSubscription(t, service, "7", "weekly", "0")
	sub, _ := service.GetSubscriptionById(ctx, subId)

	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: subId,
		Type:           "deposit",
		Method:         "bank",
		Amount:         decimal.RequireFromString("400"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	rejected, err := service.RejectTransaction(ctx, tx.Id)
	if err != nil {
		t.Fatalf("RejectTransaction failed: %v", err)
	}
	if rejected.Status != "rejected" {
		t.Errorf("Expected rejected, got %s", rejected.Status)
	}

	sub, _ = service.GetSubscriptionById(ctx, subId)
	if !sub.AmountDeposited.IsZero() {
		t.Errorf("Expected deposited to stay 0, got %s", sub.AmountDeposited.String())
	}
}
