package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateTransaction opens a pending money-movement transaction. Balance
// effects apply on ConfirmTransaction, never here.
func (s *Service) CreateTransaction(ctx context.Context, params store.CreateTransactionParams) (*models.Transaction, error) {
	switch params.Type {
	case models.TxTypeDeposit, models.TxTypeWithdrawal:
		if params.SubscriptionId == "" {
			return nil, fmt.Errorf("%w: %s requires a subscription_id", store.ErrValidation, params.Type)
		}
	case models.TxTypeKycFee:
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", store.ErrValidation, params.Type)
	}
	switch params.Method {
	case models.TxMethodBank, models.TxMethodCrypto:
	default:
		return nil, fmt.Errorf("%w: unknown transaction method %q", store.ErrValidation, params.Method)
	}
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: transaction amount must be positive, got %s", store.ErrValidation, params.Amount.String())
	}

	if _, err := s.GetMinerById(ctx, params.MinerId); err != nil {
		return nil, err
	}
	if params.SubscriptionId != "" {
		if _, err := s.GetSubscriptionById(ctx, params.SubscriptionId); err != nil {
			return nil, err
		}
	}

	// Idempotency on the external reference (bank slip, on-chain hash).
	if params.ExternalTxId != "" {
		var existingId string
		err := s.db.QueryRowContext(ctx, queryCheckDuplicateTransaction, params.ExternalTxId).Scan(&existingId)
		if err == nil {
			zap.L().Warn("Duplicate external transaction id, rejecting",
				zap.String("external_tx_id", params.ExternalTxId),
				zap.String("existing_id", existingId))
			return nil, fmt.Errorf("%w: external_transaction_id %s already exists",
				store.ErrDuplicateTransaction, params.ExternalTxId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
		}
	}

	now := time.Now().UTC()
	transactionId := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertTransaction,
		transactionId, params.MinerId, params.SubscriptionId, params.Type, params.Method,
		params.Amount.String(), params.ExternalTxId, params.Reference, now, now)
	if err != nil {
		return nil, fmt.Errorf("unable to insert transaction: %w", err)
	}

	zap.L().Info("Transaction created",
		zap.String("transaction_id", transactionId),
		zap.String("miner_id", params.MinerId),
		zap.String("type", params.Type),
		zap.String("method", params.Method),
		zap.String("amount", params.Amount.String()))

	return s.GetTransactionById(ctx, transactionId)
}

func (s *Service) GetTransactionById(ctx context.Context, transactionId string) (*models.Transaction, error) {
	var t models.Transaction
	var amountStr string
	err := s.db.QueryRowContext(ctx, queryGetTransactionById, transactionId).Scan(
		&t.Id, &t.MinerId, &t.SubscriptionId, &t.Type, &t.Method, &amountStr,
		&t.Status, &t.ExternalTxId, &t.Reference, &t.CreatedAt, &t.ProcessedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", transactionId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query transaction: %w", err)
	}

	t.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse transaction amount %q: %w", amountStr, err)
	}
	return &t, nil
}

func (s *Service) GetMinerTransactions(ctx context.Context, minerId string, limit, offset int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, queryGetMinerTransactions, minerId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query transactions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var amountStr string
		if err := rows.Scan(&t.Id, &t.MinerId, &t.SubscriptionId, &t.Type, &t.Method, &amountStr,
			&t.Status, &t.ExternalTxId, &t.Reference, &t.CreatedAt, &t.ProcessedAt); err != nil {
			return nil, fmt.Errorf("unable to scan transaction row: %w", err)
		}
		t.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("unable to parse transaction amount %q: %w", amountStr, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

// AvailableEarnings is the withdrawable balance: the accrued running
// total minus everything already confirmed out.
func (s *Service) AvailableEarnings(ctx context.Context, subscriptionId string) (decimal.Decimal, error) {
	return availableEarnings(ctx, s.db, subscriptionId)
}

func availableEarnings(ctx context.Context, q querier, subscriptionId string) (decimal.Decimal, error) {
	var depositedStr, earningsStr string
	var version int64
	err := q.QueryRowContext(ctx, queryGetSubscriptionForUpdate, subscriptionId).
		Scan(&depositedStr, &earningsStr, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("subscription %s: %w", subscriptionId, store.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to load subscription: %w", err)
	}
	earnings, err := decimal.NewFromString(earningsStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse total_earnings %q: %w", earningsStr, err)
	}
	withdrawn, err := sumAmountColumn(ctx, q, queryGetConfirmedWithdrawalAmounts, subscriptionId)
	if err != nil {
		return decimal.Zero, err
	}
	return earnings.Sub(withdrawn), nil
}

// ConfirmTransaction applies a pending transaction's balance effects:
// deposits raise the subscription's deposited amount, withdrawals are
// checked against the withdrawable balance, a kyc_fee marks the miner's
// fee as paid. Confirming anything but a pending transaction fails.
func (s *Service) ConfirmTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	t, err := s.GetTransactionById(ctx, transactionId)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TxStatusPending {
		return nil, fmt.Errorf("%w: transaction %s is %s, not pending", store.ErrValidation, transactionId, t.Status)
	}

	if err := s.confirmPending(ctx, t); err != nil {
		return nil, err
	}

	zap.L().Info("Transaction confirmed",
		zap.String("transaction_id", transactionId),
		zap.String("type", t.Type),
		zap.String("amount", t.Amount.String()))

	return s.GetTransactionById(ctx, transactionId)
}

// confirmPending runs the balance effect and the status flip in one DB
// transaction. The flip only matches a row still pending, so when two
// confirms race the loser's flip hits zero rows and the rollback takes
// its balance effect with it.
func (s *Service) confirmPending(ctx context.Context, t *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	switch t.Type {
	case models.TxTypeDeposit:
		if err := applyDeposit(ctx, tx, t); err != nil {
			return err
		}
	case models.TxTypeWithdrawal:
		available, err := availableEarnings(ctx, tx, t.SubscriptionId)
		if err != nil {
			return err
		}
		if t.Amount.GreaterThan(available) {
			return fmt.Errorf("%w: withdrawal %s exceeds withdrawable earnings %s",
				store.ErrValidation, t.Amount.String(), available.String())
		}
	case models.TxTypeKycFee:
		if err := markKycFeePaid(ctx, tx, t.MinerId); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, queryUpdateTransactionStatus,
		models.TxStatusConfirmed, time.Now().UTC(), t.Id)
	if err != nil {
		return fmt.Errorf("unable to update transaction status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Lost the race against another confirm or a reject.
		return fmt.Errorf("transaction %s: %w", t.Id, store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) RejectTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	t, err := s.GetTransactionById(ctx, transactionId)
	if err != nil {
		return nil, err
	}
	if t.Status != models.TxStatusPending {
		return nil, fmt.Errorf("%w: transaction %s is %s, not pending", store.ErrValidation, transactionId, t.Status)
	}

	if err := s.setTransactionStatus(ctx, transactionId, models.TxStatusRejected); err != nil {
		return nil, err
	}

	zap.L().Info("Transaction rejected", zap.String("transaction_id", transactionId))
	return s.GetTransactionById(ctx, transactionId)
}

// applyDeposit raises the subscription's deposited amount within the
// caller's open transaction.
func applyDeposit(ctx context.Context, q querier, t *models.Transaction) error {
	var depositedStr, earningsStr string
	var version int64
	err := q.QueryRowContext(ctx, queryGetSubscriptionForUpdate, t.SubscriptionId).
		Scan(&depositedStr, &earningsStr, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("subscription %s: %w", t.SubscriptionId, store.ErrNotFound)
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	deposited, err := decimal.NewFromString(depositedStr)
	if err != nil {
		return fmt.Errorf("unable to parse amount_deposited %q: %w", depositedStr, err)
	}
	newDeposited := deposited.Add(t.Amount)

	result, err := q.ExecContext(ctx, queryUpdateSubscriptionDeposit,
		newDeposited.String(), t.SubscriptionId, version)
	if err != nil {
		return fmt.Errorf("failed to update deposited amount: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("deposit update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}

func (s *Service) setTransactionStatus(ctx context.Context, transactionId, status string) error {
	result, err := s.db.ExecContext(ctx, queryUpdateTransactionStatus, status, time.Now().UTC(), transactionId)
	if err != nil {
		return fmt.Errorf("unable to update transaction status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Lost a race with another confirm/reject.
		return fmt.Errorf("transaction %s: %w", transactionId, store.ErrConcurrentModification)
	}
	return nil
}
