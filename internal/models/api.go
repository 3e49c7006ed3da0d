package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualSummary is the aggregate result of one batch pass
type AccrualSummary struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// AccrualStatusResponse reports the last completed batch pass
type AccrualStatusResponse struct {
	LastRunAt *time.Time `json:"last_run_at"`
}

// SubscriptionDetail is a subscription with its ledger-derived sum, so
// callers can see drift between the running total and the audit trail.
type SubscriptionDetail struct {
	Subscription MiningSubscription `json:"subscription"`
	LedgerTotal  decimal.Decimal    `json:"ledger_total"`
}

// CreateMinerRequest registers a new miner account
type CreateMinerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// CreateContractRequest creates a contract under a mining server
type CreateContractRequest struct {
	ServerId            string `json:"server_id" binding:"required"`
	Name                string `json:"name" binding:"required"`
	PeriodReturnPercent string `json:"period_return_percent" binding:"required"`
	Period              string `json:"period" binding:"required"`
}

// UpdateContractRequest edits a contract's return terms
type UpdateContractRequest struct {
	PeriodReturnPercent string `json:"period_return_percent"`
	Period              string `json:"period"`
	Active              *bool  `json:"active"`
}

// CreateServerRequest registers a mining server
type CreateServerRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
	HashRate string `json:"hash_rate"`
}

// CreateSubscriptionRequest subscribes a miner to a contract
type CreateSubscriptionRequest struct {
	MinerId    string `json:"miner_id" binding:"required"`
	ContractId string `json:"contract_id" binding:"required"`
	AutoAccrue *bool  `json:"auto_accrue"`
}

// CreateTransactionRequest opens a pending deposit/withdrawal/kyc_fee
type CreateTransactionRequest struct {
	MinerId        string `json:"miner_id" binding:"required"`
	SubscriptionId string `json:"subscription_id"`
	Type           string `json:"type" binding:"required"`
	Method         string `json:"method" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	ExternalTxId   string `json:"external_tx_id"`
	Reference      string `json:"reference"`
}

// CreateWalletRequest registers a crypto deposit wallet
type CreateWalletRequest struct {
	Label   string `json:"label" binding:"required"`
	Asset   string `json:"asset" binding:"required"`
	Network string `json:"network" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// CreateBankRequest registers a bank account
type CreateBankRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountName   string `json:"account_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error string `json:"error"`
}
