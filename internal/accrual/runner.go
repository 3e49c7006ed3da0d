package accrual

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"go.uber.org/zap"
)

// ErrAccrualInProgress is returned when a second batch pass is requested
// while one is still running. Callers retry later; they never wait.
var ErrAccrualInProgress = errors.New("accrual batch already in progress")

// Backend is the slice of the store the batch driver needs.
type Backend interface {
	GetAccruableSubscriptions(ctx context.Context) ([]models.MiningSubscription, error)
	GetContractById(ctx context.Context, contractId string) (*models.MiningContract, error)
	AppendEarning(ctx context.Context, params store.AppendEarningParams) (*models.Earning, error)
	SetLastAccrualRun(ctx context.Context, at time.Time) error
}

// RunnerConfig contains configuration for the batch driver.
type RunnerConfig struct {
	Backend Backend
	// Now overrides the clock; nil means time.Now. Tests use this to pin
	// the accrual date.
	Now func() time.Time
}

// Runner drives one daily accrual pass over every accruable subscription.
// Per-item failures are isolated: one bad subscription never aborts the
// batch. The mutex enforces single-flight execution so a cron tick and a
// manual trigger firing together cannot double-credit anyone.
type Runner struct {
	backend Backend
	now     func() time.Time
	mu      sync.Mutex
}

func NewRunner(cfg RunnerConfig) *Runner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		backend: cfg.Backend,
		now:     now,
	}
}

// RunDailyAccrual executes one batch pass and returns aggregate counts.
//
// Subscriptions with autoAccrue and a positive deposit are fetched up
// front; an empty set returns a zero summary without touching the
// run-status row. Each subscription is then processed independently:
// a missing or invalid contract counts as failed, an earning already
// recorded for today counts as skipped, a successful ledger append counts
// as processed. The run-status timestamp is advanced once the loop has
// executed at least one iteration, even on partial failure.
//
// Only errors before the loop starts (fetching the subscription list)
// propagate to the caller.
func (r *Runner) RunDailyAccrual(ctx context.Context) (models.AccrualSummary, error) {
	if !r.mu.TryLock() {
		return models.AccrualSummary{}, ErrAccrualInProgress
	}
	defer r.mu.Unlock()

	var summary models.AccrualSummary

	subs, err := r.backend.GetAccruableSubscriptions(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to fetch accruable subscriptions: %w", err)
	}

	if len(subs) == 0 {
		zap.L().Info("No accruable subscriptions, skipping accrual pass")
		return summary, nil
	}

	accrualDate := r.now().UTC().Format("2006-01-02")
	zap.L().Info("Starting daily accrual pass",
		zap.String("accrual_date", accrualDate),
		zap.Int("subscriptions", len(subs)))

	for _, sub := range subs {
		switch err := r.accrueOne(ctx, sub, accrualDate); {
		case err == nil:
			summary.Processed++
		case errors.Is(err, store.ErrDuplicateAccrual):
			summary.Skipped++
			zap.L().Debug("Earning already recorded for today, skipping",
				zap.String("subscription_id", sub.Id),
				zap.String("accrual_date", accrualDate))
		default:
			summary.Failed++
			zap.L().Error("Failed to accrue subscription",
				zap.String("subscription_id", sub.Id),
				zap.String("contract_id", sub.ContractId),
				zap.Error(err))
		}
	}

	if err := r.backend.SetLastAccrualRun(ctx, r.now().UTC()); err != nil {
		// The ledger rows are already committed; a stale timestamp only
		// affects status reporting, so log and keep the summary.
		zap.L().Error("Failed to update accrual run status", zap.Error(err))
	}

	zap.L().Info("Daily accrual pass complete",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))

	return summary, nil
}

// accrueOne computes and appends one day's earning for a subscription.
func (r *Runner) accrueOne(ctx context.Context, sub models.MiningSubscription, accrualDate string) error {
	contract, err := r.backend.GetContractById(ctx, sub.ContractId)
	if err != nil {
		return fmt.Errorf("failed to resolve contract %s: %w", sub.ContractId, err)
	}

	period, err := ParsePeriod(contract.Period)
	if err != nil {
		return err
	}

	amount, err := ComputeDailyEarning(sub.AmountDeposited, contract.PeriodReturnPercent, period)
	if err != nil {
		return err
	}

	earning, err := r.backend.AppendEarning(ctx, store.AppendEarningParams{
		SubscriptionId: sub.Id,
		Amount:         amount,
		AccrualDate:    accrualDate,
	})
	if err != nil {
		return err
	}

	zap.L().Debug("Earning accrued",
		zap.String("earning_id", earning.Id),
		zap.String("subscription_id", sub.Id),
		zap.String("amount", amount.String()))
	return nil
}
