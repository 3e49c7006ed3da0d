package models

import "time"

// CustodyPortfolio represents a Prime portfolio
type CustodyPortfolio struct {
	Id   string
	Name string
}

// CustodyWallet represents a Prime custody wallet we watch for deposits
type CustodyWallet struct {
	Id     string
	Name   string
	Symbol string
	Type   string
}

// CustodyTransferInfo is the transfer_to structure on a Prime transaction
type CustodyTransferInfo struct {
	Type              string `json:"type"`
	Value             string `json:"value"`
	Address           string `json:"address"`
	AccountIdentifier string `json:"account_identifier"`
}

// CustodyTransaction is an on-chain transaction reported by Prime
type CustodyTransaction struct {
	Id             string              `json:"id"`
	WalletId       string              `json:"wallet_id"`
	Type           string              `json:"type"`
	Status         string              `json:"status"`
	Symbol         string              `json:"symbol"`
	Amount         string              `json:"amount"`
	CreatedAt      time.Time           `json:"created_at"`
	CompletedAt    time.Time           `json:"completed_at"`
	TransferTo     CustodyTransferInfo `json:"transfer_to"`
	TransactionId  string              `json:"transaction_id"`
	Network        string              `json:"network"`
	IdempotencyKey string              `json:"idempotency_key"`
}
