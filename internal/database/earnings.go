package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AppendEarning atomically appends one ledger row and advances the
// subscription's running total by exactly the appended amount. A second
// append for the same (subscription, day) returns ErrDuplicateAccrual and
// leaves everything untouched; the ledger stays the source of truth for
// the running total.
func (s *Service) AppendEarning(ctx context.Context, params store.AppendEarningParams) (*models.Earning, error) {
	if params.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: negative earning amount %s", store.ErrValidation, params.Amount.String())
	}
	if params.AccrualDate == "" {
		return nil, fmt.Errorf("%w: accrual date is required", store.ErrValidation)
	}

	// Fast duplicate check before opening a write transaction.
	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckEarningExists, params.SubscriptionId, params.AccrualDate).Scan(&existingId)
	if err == nil {
		return nil, fmt.Errorf("%w: subscription %s on %s (earning %s)",
			store.ErrDuplicateAccrual, params.SubscriptionId, params.AccrualDate, existingId)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for existing earning: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var depositedStr, earningsStr string
	var version int64
	err = tx.QueryRowContext(ctx, queryGetSubscriptionForUpdate, params.SubscriptionId).
		Scan(&depositedStr, &earningsStr, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription %s: %w", params.SubscriptionId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	currentTotal, err := decimal.NewFromString(earningsStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse total_earnings %q: %w", earningsStr, err)
	}
	newTotal := currentTotal.Add(params.Amount)

	earning := &models.Earning{
		Id:             uuid.New().String(),
		SubscriptionId: params.SubscriptionId,
		Amount:         params.Amount,
		AccrualDate:    params.AccrualDate,
		CreatedAt:      time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, queryInsertEarning,
		earning.Id, earning.SubscriptionId, earning.Amount.String(),
		earning.AccrualDate, earning.CreatedAt)
	if err != nil {
		// The unique index backstops the pre-check against racing writers.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: subscription %s on %s",
				store.ErrDuplicateAccrual, params.SubscriptionId, params.AccrualDate)
		}
		return nil, fmt.Errorf("failed to insert earning: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateSubscriptionEarnings,
		newTotal.String(), params.SubscriptionId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription earnings: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("earnings update failed - %w", store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Earning appended",
		zap.String("earning_id", earning.Id),
		zap.String("subscription_id", params.SubscriptionId),
		zap.String("amount", params.Amount.String()),
		zap.String("accrual_date", params.AccrualDate),
		zap.String("total_earnings", newTotal.String()))

	return earning, nil
}

// GetEarnings returns a page of ledger rows, most recent first.
func (s *Service) GetEarnings(ctx context.Context, subscriptionId string, limit, offset int) ([]models.Earning, error) {
	rows, err := s.db.QueryContext(ctx, queryGetEarnings, subscriptionId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query earnings: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var earnings []models.Earning
	for rows.Next() {
		var e models.Earning
		var amountStr string
		if err := rows.Scan(&e.Id, &e.SubscriptionId, &amountStr, &e.AccrualDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan earning row: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("unable to parse earning amount %q: %w", amountStr, err)
		}
		earnings = append(earnings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating earning rows: %w", err)
	}
	return earnings, nil
}

// SumEarnings computes the exact ledger total for a subscription. The sum
// is done in Go over decimal strings so no floating-point rounding leaks
// into the audit path.
func (s *Service) SumEarnings(ctx context.Context, subscriptionId string) (decimal.Decimal, error) {
	return sumAmountColumn(ctx, s.db, queryGetEarningAmounts, subscriptionId)
}

func sumAmountColumn(ctx context.Context, q querier, query string, args ...any) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to query amounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("unable to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, fmt.Errorf("unable to parse amount %q: %w", amountStr, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amount rows: %w", err)
	}
	return total, nil
}

// ReconcileSubscriptionEarnings verifies that the subscription's running
// total matches the sum of its ledger rows.
func (s *Service) ReconcileSubscriptionEarnings(ctx context.Context, subscriptionId string) error {
	sub, err := s.GetSubscriptionById(ctx, subscriptionId)
	if err != nil {
		return err
	}

	ledgerTotal, err := s.SumEarnings(ctx, subscriptionId)
	if err != nil {
		return err
	}

	if !sub.TotalEarnings.Equal(ledgerTotal) {
		zap.L().Error("Earnings reconciliation failed",
			zap.String("subscription_id", subscriptionId),
			zap.String("running_total", sub.TotalEarnings.String()),
			zap.String("ledger_total", ledgerTotal.String()),
			zap.String("difference", sub.TotalEarnings.Sub(ledgerTotal).String()))
		return fmt.Errorf("earnings mismatch for subscription %s: running=%s, ledger=%s",
			subscriptionId, sub.TotalEarnings.String(), ledgerTotal.String())
	}

	zap.L().Info("Earnings reconciliation successful",
		zap.String("subscription_id", subscriptionId),
		zap.String("total", ledgerTotal.String()))
	return nil
}

// GetLastAccrualRun returns nil before the first completed batch pass.
func (s *Service) GetLastAccrualRun(ctx context.Context) (*time.Time, error) {
	var at time.Time
	err := s.db.QueryRowContext(ctx, queryGetLastAccrualRun).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to query accrual run status: %w", err)
	}
	return &at, nil
}

func (s *Service) SetLastAccrualRun(ctx context.Context, at time.Time) error {
	if _, err := s.db.ExecContext(ctx, queryUpsertLastAccrualRun, at.UTC()); err != nil {
		return fmt.Errorf("unable to update accrual run status: %w", err)
	}
	return nil
}
