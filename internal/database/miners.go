package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanMiner(row *sql.Row) (*models.Miner, error) {
	var m models.Miner
	err := row.Scan(&m.Id, &m.Name, &m.Email, &m.Active, &m.KycStatus, &m.KycFeePaid, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) CreateMiner(ctx context.Context, name, email string) (*models.Miner, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: miner name and email are required", store.ErrValidation)
	}

	minerId := uuid.New().String()
	zap.L().Info("Creating miner", zap.String("id", minerId), zap.String("email", email))

	_, err := s.db.ExecContext(ctx, queryInsertMiner, minerId, name, email)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: miner with email %s already exists", store.ErrValidation, email)
		}
		zap.L().Error("Failed to insert miner", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert miner: %w", err)
	}

	return s.GetMinerById(ctx, minerId)
}

func (s *Service) GetMinerById(ctx context.Context, minerId string) (*models.Miner, error) {
	miner, err := scanMiner(s.db.QueryRowContext(ctx, queryGetMinerById, minerId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("miner %s: %w", minerId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query miner by id: %w", err)
	}
	return miner, nil
}

func (s *Service) GetMinerByEmail(ctx context.Context, email string) (*models.Miner, error) {
	miner, err := scanMiner(s.db.QueryRowContext(ctx, queryGetMinerByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("miner %s: %w", email, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query miner by email: %w", err)
	}
	return miner, nil
}

func (s *Service) GetMiners(ctx context.Context) ([]models.Miner, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveMiners)
	if err != nil {
		return nil, fmt.Errorf("unable to query miners: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var miners []models.Miner
	for rows.Next() {
		var m models.Miner
		if err := rows.Scan(&m.Id, &m.Name, &m.Email, &m.Active, &m.KycStatus, &m.KycFeePaid, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan miner row: %w", err)
		}
		miners = append(miners, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating miner rows: %w", err)
	}
	return miners, nil
}

func (s *Service) SetMinerKycStatus(ctx context.Context, minerId, status string) error {
	switch status {
	case models.KycStatusNone, models.KycStatusPending, models.KycStatusApproved, models.KycStatusRejected:
	default:
		return fmt.Errorf("%w: unknown kyc status %q", store.ErrValidation, status)
	}

	result, err := s.db.ExecContext(ctx, queryUpdateMinerKycStatus, status, minerId)
	if err != nil {
		return fmt.Errorf("unable to update kyc status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("miner %s: %w", minerId, store.ErrNotFound)
	}

	zap.L().Info("Miner KYC status updated",
		zap.String("miner_id", minerId),
		zap.String("status", status))
	return nil
}

func (s *Service) SetMinerKycFeePaid(ctx context.Context, minerId string) error {
	return markKycFeePaid(ctx, s.db, minerId)
}

func markKycFeePaid(ctx context.Context, q querier, minerId string) error {
	result, err := q.ExecContext(ctx, queryUpdateMinerKycFeePaid, minerId)
	if err != nil {
		return fmt.Errorf("unable to mark kyc fee paid: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("miner %s: %w", minerId, store.ErrNotFound)
	}
	return nil
}
