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

func (s *Service) CreateServer(ctx context.Context, name, location, hashRate string) (*models.MiningServer, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: server name is required", store.ErrValidation)
	}

	serverId := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertServer, serverId, name, location, hashRate)
	if err != nil {
		return nil, fmt.Errorf("unable to insert mining server: %w", err)
	}

	zap.L().Info("Mining server created",
		zap.String("server_id", serverId),
		zap.String("name", name))

	return &models.MiningServer{
		Id:       serverId,
		Name:     name,
		Location: location,
		HashRate: hashRate,
		Active:   true,
	}, nil
}

func (s *Service) GetServers(ctx context.Context) ([]models.MiningServer, error) {
	rows, err := s.db.QueryContext(ctx, queryGetServers)
	if err != nil {
		return nil, fmt.Errorf("unable to query mining servers: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var servers []models.MiningServer
	for rows.Next() {
		var srv models.MiningServer
		if err := rows.Scan(&srv.Id, &srv.Name, &srv.Location, &srv.HashRate, &srv.Active, &srv.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan server row: %w", err)
		}
		servers = append(servers, srv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating server rows: %w", err)
	}
	return servers, nil
}

func (s *Service) CreateContract(ctx context.Context, params store.CreateContractParams) (*models.MiningContract, error) {
	if params.Name == "" || params.ServerId == "" {
		return nil, fmt.Errorf("%w: contract name and server_id are required", store.ErrValidation)
	}
	if params.PeriodReturnPercent.IsNegative() {
		return nil, fmt.Errorf("%w: negative return percent %s", store.ErrValidation, params.PeriodReturnPercent.String())
	}

	contractId := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertContract,
		contractId, params.ServerId, params.Name,
		params.PeriodReturnPercent.String(), params.Period)
	if err != nil {
		return nil, fmt.Errorf("unable to insert contract: %w", err)
	}

	zap.L().Info("Contract created",
		zap.String("contract_id", contractId),
		zap.String("name", params.Name),
		zap.String("period_return_percent", params.PeriodReturnPercent.String()),
		zap.String("period", params.Period))

	return s.GetContractById(ctx, contractId)
}

func (s *Service) GetContractById(ctx context.Context, contractId string) (*models.MiningContract, error) {
	var c models.MiningContract
	var percentStr string
	err := s.db.QueryRowContext(ctx, queryGetContractById, contractId).Scan(
		&c.Id, &c.ServerId, &c.Name, &percentStr, &c.Period, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contract %s: %w", contractId, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query contract: %w", err)
	}

	c.PeriodReturnPercent, err = decimal.NewFromString(percentStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse return percent %q: %w", percentStr, err)
	}
	return &c, nil
}

func (s *Service) GetContracts(ctx context.Context) ([]models.MiningContract, error) {
	rows, err := s.db.QueryContext(ctx, queryGetContracts)
	if err != nil {
		return nil, fmt.Errorf("unable to query contracts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var contracts []models.MiningContract
	for rows.Next() {
		var c models.MiningContract
		var percentStr string
		if err := rows.Scan(&c.Id, &c.ServerId, &c.Name, &percentStr, &c.Period, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan contract row: %w", err)
		}
		c.PeriodReturnPercent, err = decimal.NewFromString(percentStr)
		if err != nil {
			return nil, fmt.Errorf("unable to parse return percent %q: %w", percentStr, err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract rows: %w", err)
	}
	return contracts, nil
}

// UpdateContract edits a contract's return terms. Unset fields keep their
// current values; the update is read-modify-write under a DB transaction.
func (s *Service) UpdateContract(ctx context.Context, contractId string, params store.UpdateContractParams) (*models.MiningContract, error) {
	current, err := s.GetContractById(ctx, contractId)
	if err != nil {
		return nil, err
	}

	percent := current.PeriodReturnPercent
	if params.PeriodReturnPercent != nil {
		if params.PeriodReturnPercent.IsNegative() {
			return nil, fmt.Errorf("%w: negative return percent %s", store.ErrValidation, params.PeriodReturnPercent.String())
		}
		percent = *params.PeriodReturnPercent
	}
	period := current.Period
	if params.Period != nil {
		period = *params.Period
	}
	active := current.Active
	if params.Active != nil {
		active = *params.Active
	}

	_, err = s.db.ExecContext(ctx, queryUpdateContract, percent.String(), period, active, contractId)
	if err != nil {
		return nil, fmt.Errorf("unable to update contract: %w", err)
	}

	zap.L().Info("Contract updated",
		zap.String("contract_id", contractId),
		zap.String("period_return_percent", percent.String()),
		zap.String("period", period),
		zap.Bool("active", active))

	return s.GetContractById(ctx, contractId)
}
