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

func (s *Service) CreateWallet(ctx context.Context, label, asset, network, address string) (*models.Wallet, error) {
	if label == "" || asset == "" || network == "" || address == "" {
		return nil, fmt.Errorf("%w: wallet label, asset, network and address are required", store.ErrValidation)
	}

	walletId := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertWallet, walletId, label, asset, network, address)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: wallet address %s already registered", store.ErrValidation, address)
		}
		return nil, fmt.Errorf("unable to insert wallet: %w", err)
	}

	zap.L().Info("Wallet registered",
		zap.String("wallet_id", walletId),
		zap.String("asset", asset),
		zap.String("network", network))

	return &models.Wallet{
		Id: walletId, Label: label, Asset: asset, Network: network,
		Address: address, Active: true,
	}, nil
}

func (s *Service) GetWallets(ctx context.Context) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, queryGetWallets)
	if err != nil {
		return nil, fmt.Errorf("unable to query wallets: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.Id, &w.Label, &w.Asset, &w.Network, &w.Address, &w.Active, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}
	return wallets, nil
}

func (s *Service) FindWalletByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	var w models.Wallet
	err := s.db.QueryRowContext(ctx, queryFindWalletByAddress, address).Scan(
		&w.Id, &w.Label, &w.Asset, &w.Network, &w.Address, &w.Active, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("wallet address %s: %w", address, store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query wallet by address: %w", err)
	}
	return &w, nil
}

func (s *Service) CreateBank(ctx context.Context, bankName, accountName, accountNumber string) (*models.Bank, error) {
	if bankName == "" || accountName == "" || accountNumber == "" {
		return nil, fmt.Errorf("%w: bank name, account name and account number are required", store.ErrValidation)
	}

	bankId := uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertBank, bankId, bankName, accountName, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("unable to insert bank: %w", err)
	}

	zap.L().Info("Bank registered",
		zap.String("bank_id", bankId),
		zap.String("bank_name", bankName))

	return &models.Bank{
		Id: bankId, BankName: bankName, AccountName: accountName,
		AccountNumber: accountNumber, Active: true,
	}, nil
}

func (s *Service) GetBanks(ctx context.Context) ([]models.Bank, error) {
	rows, err := s.db.QueryContext(ctx, queryGetBanks)
	if err != nil {
		return nil, fmt.Errorf("unable to query banks: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var banks []models.Bank
	for rows.Next() {
		var b models.Bank
		if err := rows.Scan(&b.Id, &b.BankName, &b.AccountName, &b.AccountNumber, &b.Active, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("unable to scan bank row: %w", err)
		}
		banks = append(banks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank rows: %w", err)
	}
	return banks, nil
}
