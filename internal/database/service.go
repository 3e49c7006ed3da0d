package database

import (
	"context"
	"database/sql"
	"fmt"

	"mining-invest-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"mining-invest-go/internal/models"
)

// Compile-time check: *Service must satisfy store.Store.
var _ store.Store = (*Service)(nil)

type Service struct {
	db *sql.DB
}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so balance reads and writes can run standalone or inside an open
// transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

// NewServiceFromDB wraps an already-open database handle. Used by tests
// with an in-memory SQLite database.
func NewServiceFromDB(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) InitSchema() error {
	schema := `
	-- Miner accounts
	CREATE TABLE IF NOT EXISTS miners (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT 1,
		kyc_status TEXT NOT NULL DEFAULT 'none',
		kyc_fee_paid BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_miners_email ON miners(email);
	CREATE INDEX IF NOT EXISTS idx_miners_kyc_status ON miners(kyc_status);

	-- Admin catalog of mining servers
	CREATE TABLE IF NOT EXISTS mining_servers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		hash_rate TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Contracts are the rate basis for subscriptions; rows referenced by
	-- subscriptions are never deleted, only deactivated.
	CREATE TABLE IF NOT EXISTS mining_contracts (
		id TEXT PRIMARY KEY,
		server_id TEXT NOT NULL REFERENCES mining_servers(id),
		name TEXT NOT NULL,
		period_return_percent TEXT NOT NULL,
		period TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_contracts_server ON mining_contracts(server_id);

	-- Subscriptions (current state, hot data)
	CREATE TABLE IF NOT EXISTS mining_subscriptions (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL REFERENCES mining_contracts(id),
		miner_id TEXT NOT NULL REFERENCES miners(id),
		amount_deposited TEXT NOT NULL DEFAULT '0',
		auto_accrue BOOLEAN NOT NULL DEFAULT 1,
		total_earnings TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_miner ON mining_subscriptions(miner_id);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_contract ON mining_subscriptions(contract_id);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_auto_accrue ON mining_subscriptions(auto_accrue);

	-- Earnings ledger (append-only audit trail, cold data). The unique
	-- index is the hard guard against double-accrual on the same day.
	CREATE TABLE IF NOT EXISTS earnings (
		id TEXT PRIMARY KEY,
		subscription_id TEXT NOT NULL REFERENCES mining_subscriptions(id),
		amount TEXT NOT NULL,
		accrual_date TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_earnings_sub_date ON earnings(subscription_id, accrual_date);
	CREATE INDEX IF NOT EXISTS idx_earnings_subscription ON earnings(subscription_id);

	-- Singleton run-status row (id is always 1)
	CREATE TABLE IF NOT EXISTS accrual_run_status (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		date_of_last_update TIMESTAMP NOT NULL
	);

	-- Admin-managed deposit endpoints
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		asset TEXT NOT NULL,
		network TEXT NOT NULL,
		address TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS banks (
		id TEXT PRIMARY KEY,
		bank_name TEXT NOT NULL,
		account_name TEXT NOT NULL,
		account_number TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Money-movement transactions (append-only after confirmation)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		miner_id TEXT NOT NULL REFERENCES miners(id),
		subscription_id TEXT NOT NULL DEFAULT '',
		transaction_type TEXT NOT NULL,
		method TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		external_transaction_id TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_miner ON transactions(miner_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_subscription ON transactions(subscription_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_external_id
		ON transactions(external_transaction_id) WHERE external_transaction_id != '';
	`

	_, err := s.db.Exec(schema)
	return err
}
