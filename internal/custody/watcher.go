package custody

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WatcherConfig contains configuration for the deposit watcher.
type WatcherConfig struct {
	CustodyService  *Service
	Store           store.Store
	PortfolioId     string
	LookbackWindow  time.Duration
	PollingInterval time.Duration
	CleanupInterval time.Duration
}

// Watcher polls the custody API for incoming deposits on the platform's
// trading wallets and turns each into a pending deposit transaction.
// The admin confirms it like any bank deposit; confirmation applies the
// balance effects.
type Watcher struct {
	custodyService *Service
	store          store.Store

	processedTxIds  map[string]time.Time
	mutex           sync.RWMutex
	lookbackWindow  time.Duration
	pollingInterval time.Duration
	cleanupInterval time.Duration

	portfolioId    string
	watchedWallets []models.CustodyWallet

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		custodyService:  cfg.CustodyService,
		store:           cfg.Store,
		processedTxIds:  make(map[string]time.Time),
		lookbackWindow:  cfg.LookbackWindow,
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		portfolioId:     cfg.PortfolioId,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start discovers the custody wallets to watch and begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	zap.L().Info("Starting custody deposit watcher")

	if err := w.loadWatchedWallets(ctx); err != nil {
		return fmt.Errorf("failed to load watched wallets: %w", err)
	}
	if len(w.watchedWallets) == 0 {
		return fmt.Errorf("no custody wallets to watch")
	}

	go w.pollLoop(ctx)
	go w.cleanupLoop(ctx)

	zap.L().Info("Custody deposit watcher started",
		zap.Int("wallets", len(w.watchedWallets)),
		zap.Duration("polling_interval", w.pollingInterval),
		zap.Duration("lookback_window", w.lookbackWindow))
	return nil
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() {
	zap.L().Info("Stopping custody deposit watcher")
	close(w.stopChan)
	<-w.doneChan
	zap.L().Info("Custody deposit watcher stopped")
}

func (w *Watcher) loadWatchedWallets(ctx context.Context) error {
	wallets, err := w.custodyService.ListWallets(ctx, w.portfolioId, "TRADING", nil)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	w.watchedWallets = make([]models.CustodyWallet, 0, len(wallets))
	for _, wallet := range wallets {
		if !seen[wallet.Id] {
			seen[wallet.Id] = true
			w.watchedWallets = append(w.watchedWallets, wallet)
		}
	}
	return nil
}

func (w *Watcher) pollLoop(ctx context.Context) {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.pollingInterval)
	defer ticker.Stop()

	w.pollWallets(ctx)

	for {
		select {
		case <-ticker.C:
			w.pollWallets(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) pollWallets(ctx context.Context) {
	since := time.Now().UTC().Add(-w.lookbackWindow)

	var wg sync.WaitGroup
	for _, wallet := range w.watchedWallets {
		wg.Add(1)

		go func(cw models.CustodyWallet) {
			defer wg.Done()

			if err := w.pollWallet(ctx, cw, since); err != nil {
				zap.L().Error("Failed to poll custody wallet",
					zap.String("wallet_id", cw.Id),
					zap.String("symbol", cw.Symbol),
					zap.Error(err))
			}
		}(wallet)
	}
	wg.Wait()
}

func (w *Watcher) pollWallet(ctx context.Context, wallet models.CustodyWallet, since time.Time) error {
	txs, err := w.custodyService.ListWalletTransactions(ctx, w.portfolioId, wallet.Id, since)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}

	for _, tx := range txs {
		if w.isTransactionProcessed(tx.Id) {
			continue
		}
		if err := w.processDeposit(ctx, tx); err != nil {
			zap.L().Error("Failed to process custody deposit",
				zap.String("transaction_id", tx.Id),
				zap.String("wallet_id", wallet.Id),
				zap.Error(err))
		}
	}
	return nil
}

// processDeposit records one completed on-chain deposit as a pending
// platform transaction. Deposits that cannot be attributed to a
// subscription are marked processed and left for manual handling so
// the poll loop does not retry them forever.
func (w *Watcher) processDeposit(ctx context.Context, tx models.CustodyTransaction) error {
	if tx.Type != "DEPOSIT" || tx.Status != "TRANSACTION_IMPORTED" {
		zap.L().Debug("Skipping custody transaction",
			zap.String("transaction_id", tx.Id),
			zap.String("type", tx.Type),
			zap.String("status", tx.Status))
		return nil
	}

	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", tx.Amount, err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	// The destination must be one of the platform's registered deposit
	// wallets; anything else is not ours to account for.
	lookupAddress := tx.TransferTo.AccountIdentifier
	if lookupAddress == "" {
		lookupAddress = tx.TransferTo.Address
	}
	if lookupAddress == "" {
		w.markTransactionProcessed(tx.Id)
		return nil
	}
	if _, err := w.store.FindWalletByAddress(ctx, lookupAddress); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			zap.L().Warn("Deposit to unregistered address, skipping",
				zap.String("transaction_id", tx.Id),
				zap.String("address", lookupAddress))
			w.markTransactionProcessed(tx.Id)
			return nil
		}
		return err
	}

	sub, err := w.findSubscriptionByIdempotencyKeyPrefix(ctx, tx.IdempotencyKey)
	if err != nil {
		zap.L().Warn("Could not attribute custody deposit to a subscription",
			zap.String("transaction_id", tx.Id),
			zap.String("idempotency_key", tx.IdempotencyKey),
			zap.Error(err))
		w.markTransactionProcessed(tx.Id)
		return nil
	}

	reference := strings.TrimSuffix(fmt.Sprintf("%s-%s", tx.Symbol, tx.Network), "-")
	_, err = w.store.CreateTransaction(ctx, store.CreateTransactionParams{
		MinerId:        sub.MinerId,
		SubscriptionId: sub.Id,
		Type:           models.TxTypeDeposit,
		Method:         models.TxMethodCrypto,
		Amount:         amount,
		ExternalTxId:   tx.Id,
		Reference:      reference,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			w.markTransactionProcessed(tx.Id)
			return nil
		}
		return fmt.Errorf("failed to record pending deposit: %w", err)
	}

	w.markTransactionProcessed(tx.Id)
	zap.L().Info("Pending custody deposit recorded",
		zap.String("transaction_id", tx.Id),
		zap.String("subscription_id", sub.Id),
		zap.String("symbol", tx.Symbol),
		zap.String("amount", amount.String()))
	return nil
}

// findSubscriptionByIdempotencyKeyPrefix matches a deposit to the
// subscription whose id shares the first UUID segment with the
// transfer's idempotency key. Miners embed that prefix when they
// initiate a custody transfer.
func (w *Watcher) findSubscriptionByIdempotencyKeyPrefix(ctx context.Context, idempotencyKey string) (*models.MiningSubscription, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("empty idempotency key")
	}
	prefix := strings.Split(idempotencyKey, "-")[0]

	miners, err := w.store.GetMiners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get miners: %w", err)
	}

	for _, miner := range miners {
		subs, err := w.store.GetMinerSubscriptions(ctx, miner.Id)
		if err != nil {
			zap.L().Error("Failed to get subscriptions for miner",
				zap.String("miner_id", miner.Id),
				zap.Error(err))
			continue
		}
		for _, sub := range subs {
			if strings.Split(sub.Id, "-")[0] == prefix {
				return &sub, nil
			}
		}
	}
	return nil, fmt.Errorf("no subscription matching idempotency key prefix %s", prefix)
}

func (w *Watcher) isTransactionProcessed(txId string) bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	_, exists := w.processedTxIds[txId]
	return exists
}

func (w *Watcher) markTransactionProcessed(txId string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.processedTxIds[txId] = time.Now()
}

func (w *Watcher) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.cleanupProcessedTransactions()
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) cleanupProcessedTransactions() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	cutoff := time.Now().UTC().Add(-w.lookbackWindow)
	cleaned := 0
	for txId, processedTime := range w.processedTxIds {
		if processedTime.Before(cutoff) {
			delete(w.processedTxIds, txId)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up old processed transactions",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(w.processedTxIds)))
	}
}
