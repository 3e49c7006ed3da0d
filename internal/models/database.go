package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KYC verification states for a miner account.
const (
	KycStatusNone     = "none"
	KycStatusPending  = "pending"
	KycStatusApproved = "approved"
	KycStatusRejected = "rejected"
)

// Transaction types and lifecycle states.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeKycFee     = "kyc_fee"

	TxMethodBank   = "bank"
	TxMethodCrypto = "crypto"

	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusRejected  = "rejected"
)

// Miner represents a platform account that subscribes to mining contracts
type Miner struct {
	Id         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Active     bool      `db:"active" json:"active"`
	KycStatus  string    `db:"kyc_status" json:"kyc_status"`
	KycFeePaid bool      `db:"kyc_fee_paid" json:"kyc_fee_paid"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// MiningServer is an admin-managed catalog entry that contracts attach to
type MiningServer struct {
	Id        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  string    `db:"location" json:"location"`
	HashRate  string    `db:"hash_rate" json:"hash_rate"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MiningContract is the immutable rate basis for subscriptions referencing it.
// PeriodReturnPercent is a percentage over Period (e.g. 7 over "weekly" = 1%/day).
type MiningContract struct {
	Id                  string          `db:"id" json:"id"`
	ServerId            string          `db:"server_id" json:"server_id"`
	Name                string          `db:"name" json:"name"`
	PeriodReturnPercent decimal.Decimal `db:"period_return_percent" json:"period_return_percent"`
	Period              string          `db:"period" json:"period"`
	Active              bool            `db:"active" json:"active"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// MiningSubscription links a miner to a contract (hot data).
// TotalEarnings is maintained incrementally by the accrual batch and must
// always equal the sum of the earnings ledger; withdrawals never touch it.
type MiningSubscription struct {
	Id              string          `db:"id" json:"id"`
	ContractId      string          `db:"contract_id" json:"contract_id"`
	MinerId         string          `db:"miner_id" json:"miner_id"`
	AmountDeposited decimal.Decimal `db:"amount_deposited" json:"amount_deposited"`
	AutoAccrue      bool            `db:"auto_accrue" json:"auto_accrue"`
	TotalEarnings   decimal.Decimal `db:"total_earnings" json:"total_earnings"`
	Version         int64           `db:"version" json:"version"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Earning is one append-only ledger row: one day's accrual for a subscription.
// Never mutated after creation.
type Earning struct {
	Id             string          `db:"id" json:"id"`
	SubscriptionId string          `db:"subscription_id" json:"subscription_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	AccrualDate    string          `db:"accrual_date" json:"accrual_date"` // YYYY-MM-DD, unique per subscription
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Wallet is an admin-managed crypto deposit wallet
type Wallet struct {
	Id        string    `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	Asset     string    `db:"asset" json:"asset"`
	Network   string    `db:"network" json:"network"`
	Address   string    `db:"address" json:"address"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Bank is an admin-managed bank account for fiat deposits
type Bank struct {
	Id            string    `db:"id" json:"id"`
	BankName      string    `db:"bank_name" json:"bank_name"`
	AccountName   string    `db:"account_name" json:"account_name"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Transaction represents immutable money-movement history (cold data).
// Confirmed deposits raise the subscription's AmountDeposited, confirmed
// withdrawals count against the withdrawable balance, a confirmed kyc_fee
// marks the miner's fee as paid.
type Transaction struct {
	Id             string          `db:"id" json:"id"`
	MinerId        string          `db:"miner_id" json:"miner_id"`
	SubscriptionId string          `db:"subscription_id" json:"subscription_id"`
	Type           string          `db:"transaction_type" json:"type"`
	Method         string          `db:"method" json:"method"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Status         string          `db:"status" json:"status"`
	ExternalTxId   string          `db:"external_transaction_id" json:"external_tx_id"`
	Reference      string          `db:"reference" json:"reference"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt    time.Time       `db:"processed_at" json:"processed_at"`
}
