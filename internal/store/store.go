package store

import (
	"context"
	"errors"
	"time"

	"mining-invest-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the persistence layer. Handlers map these
// to HTTP status codes; batch code branches on them with errors.Is.
var (
	ErrNotFound               = errors.New("record not found")
	ErrValidation             = errors.New("validation failed")
	ErrDuplicateAccrual       = errors.New("accrual already recorded for this day")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// AppendEarningParams contains the parameters for one ledger append.
// AccrualDate is the calendar day (YYYY-MM-DD) the earning belongs to.
type AppendEarningParams struct {
	SubscriptionId string
	Amount         decimal.Decimal
	AccrualDate    string
}

// CreateTransactionParams opens a pending money-movement transaction.
type CreateTransactionParams struct {
	MinerId        string
	SubscriptionId string
	Type           string
	Method         string
	Amount         decimal.Decimal
	ExternalTxId   string
	Reference      string
}

// CreateContractParams for admin contract creation.
type CreateContractParams struct {
	ServerId            string
	Name                string
	PeriodReturnPercent decimal.Decimal
	Period              string
}

// UpdateContractParams for admin edits to return terms. Nil fields are
// left unchanged.
type UpdateContractParams struct {
	PeriodReturnPercent *decimal.Decimal
	Period              *string
	Active              *bool
}

// Store defines the contract the SQLite backend satisfies. Batch and HTTP
// code depend on this (or on narrower slices of it), never on *sql.DB.
type Store interface {
	// --- Miners ---
	CreateMiner(ctx context.Context, name, email string) (*models.Miner, error)
	GetMinerById(ctx context.Context, minerId string) (*models.Miner, error)
	GetMinerByEmail(ctx context.Context, email string) (*models.Miner, error)
	GetMiners(ctx context.Context) ([]models.Miner, error)
	SetMinerKycStatus(ctx context.Context, minerId, status string) error
	SetMinerKycFeePaid(ctx context.Context, minerId string) error

	// --- Servers & contracts ---
	CreateServer(ctx context.Context, name, location, hashRate string) (*models.MiningServer, error)
	GetServers(ctx context.Context) ([]models.MiningServer, error)
	CreateContract(ctx context.Context, params CreateContractParams) (*models.MiningContract, error)
	UpdateContract(ctx context.Context, contractId string, params UpdateContractParams) (*models.MiningContract, error)
	GetContractById(ctx context.Context, contractId string) (*models.MiningContract, error)
	GetContracts(ctx context.Context) ([]models.MiningContract, error)

	// --- Subscriptions ---
	CreateSubscription(ctx context.Context, minerId, contractId string, autoAccrue bool) (*models.MiningSubscription, error)
	GetSubscriptionById(ctx context.Context, subscriptionId string) (*models.MiningSubscription, error)
	GetAccruableSubscriptions(ctx context.Context) ([]models.MiningSubscription, error)
	GetMinerSubscriptions(ctx context.Context, minerId string) ([]models.MiningSubscription, error)

	// --- Earnings ledger ---
	AppendEarning(ctx context.Context, params AppendEarningParams) (*models.Earning, error)
	GetEarnings(ctx context.Context, subscriptionId string, limit, offset int) ([]models.Earning, error)
	SumEarnings(ctx context.Context, subscriptionId string) (decimal.Decimal, error)
	AvailableEarnings(ctx context.Context, subscriptionId string) (decimal.Decimal, error)
	ReconcileSubscriptionEarnings(ctx context.Context, subscriptionId string) error

	// --- Accrual run status ---
	GetLastAccrualRun(ctx context.Context) (*time.Time, error)
	SetLastAccrualRun(ctx context.Context, at time.Time) error

	// --- Wallets & banks ---
	CreateWallet(ctx context.Context, label, asset, network, address string) (*models.Wallet, error)
	GetWallets(ctx context.Context) ([]models.Wallet, error)
	FindWalletByAddress(ctx context.Context, address string) (*models.Wallet, error)
	CreateBank(ctx context.Context, bankName, accountName, accountNumber string) (*models.Bank, error)
	GetBanks(ctx context.Context) ([]models.Bank, error)

	// --- Transactions ---
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.Transaction, error)
	GetTransactionById(ctx context.Context, transactionId string) (*models.Transaction, error)
	GetMinerTransactions(ctx context.Context, minerId string, limit, offset int) ([]models.Transaction, error)
	ConfirmTransaction(ctx context.Context, transactionId string) (*models.Transaction, error)
	RejectTransaction(ctx context.Context, transactionId string) (*models.Transaction, error)

	// --- Lifecycle ---
	Close()
}
