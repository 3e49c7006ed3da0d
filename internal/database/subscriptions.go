package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) CreateSubscription(ctx context.Context, minerId, contractId string, autoAccrue bool) (*models.MiningSubscription, error) {
	// Both sides must exist; a dangling contract reference would poison
	// every later accrual pass for this subscription.
	if _, err := s.GetMinerById(ctx, minerId); err != nil {
		return nil, err
	}
	contract, err := s.GetContractById(ctx, contractId)
	if err != nil {
		return nil, err
	}
	if !contract.Active {
		return nil, fmt.Errorf("%w: contract %s is not active", store.ErrValidation, contractId)
	}

	subscriptionId := uuid.New().String()
	_, err = s.db.ExecContext(ctx, queryInsertSubscription, subscriptionId, contractId, minerId, autoAccrue)
	if err != nil {
		return nil, fmt.Errorf("unable to insert subscription: %w", err)
	}

	zap.L().Info("Subscription created",
		zap.String("subscription_id", subscriptionId),
		zap.String("miner_id", minerId),
		zap.String("contract_id", contractId),
		zap.Bool("auto_accrue", autoAccrue))

	return s.GetSubscriptionById(ctx, subscriptionId)
}

func scanSubscription(scan func(dest ...any) error) (*models.MiningSubscription, error) {
	var sub models.MiningSubscription
	var depositedStr, earningsStr string
	err := scan(&sub.Id, &sub.ContractId, &sub.MinerId, &depositedStr, &sub.AutoAccrue,
		&earningsStr, &sub.Version, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sub.AmountDeposited, err = decimal.NewFromString(depositedStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse amount_deposited %q: %w", depositedStr, err)
	}
	sub.TotalEarnings, err = decimal.NewFromString(earningsStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse total_earnings %q: %w", earningsStr, err)
	}
	return &sub, nil
}

func (s *Service) GetSubscriptionById(ctx context.Context, subscriptionId string) (*models.MiningSubscription, error) {
	row := s.db.QueryRowContext(ctx, queryGetSubscriptionById, subscriptionId)
	sub, err := scanSubscription(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription %s: %w", subscriptionId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query subscription: %w", err)
	}
	return sub, nil
}

func (s *Service) querySubscriptions(ctx context.Context, query string, args ...any) ([]models.MiningSubscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to query subscriptions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var subs []models.MiningSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("unable to scan subscription row: %w", err)
		}
		subs = append(subs, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}
	return subs, nil
}

// GetAccruableSubscriptions returns subscriptions the daily batch should
// touch: auto-accrue enabled and a strictly positive deposit.
func (s *Service) GetAccruableSubscriptions(ctx context.Context) ([]models.MiningSubscription, error) {
	return s.querySubscriptions(ctx, queryGetAccruableSubscriptions)
}

func (s *Service) GetMinerSubscriptions(ctx context.Context, minerId string) ([]models.MiningSubscription, error) {
	return s.querySubscriptions(ctx, queryGetMinerSubscriptions, minerId)
}
