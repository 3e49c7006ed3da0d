package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Accrual  AccrualConfig
	Custody  CustodyConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string        `envconfig:"DATABASE_PATH" default:"platform.db"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"30s"`
	PingTimeout     time.Duration `envconfig:"DB_PING_TIMEOUT" default:"5s"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	ListenAddr      string        `envconfig:"API_LISTEN_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

// AccrualConfig holds accrual batch settings
type AccrualConfig struct {
	// Cron expression for the daily run, in CronTimezone.
	CronSchedule  string `envconfig:"ACCRUAL_CRON" default:"0 0 * * *"`
	CronTimezone  string `envconfig:"ACCRUAL_TIMEZONE" default:"UTC"`
	ContractsFile string `envconfig:"CONTRACTS_FILE" default:"contracts.yaml"`
}

// CustodyConfig holds settings for the optional Coinbase Prime deposit watcher
type CustodyConfig struct {
	Enabled         bool          `envconfig:"CUSTODY_ENABLED" default:"false"`
	LookbackWindow  time.Duration `envconfig:"CUSTODY_LOOKBACK_WINDOW" default:"6h"`
	PollingInterval time.Duration `envconfig:"CUSTODY_POLLING_INTERVAL" default:"30s"`
	CleanupInterval time.Duration `envconfig:"CUSTODY_CLEANUP_INTERVAL" default:"15m"`
}
