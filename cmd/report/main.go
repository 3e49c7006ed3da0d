package main

import (
	"context"
	"flag"
	"fmt"

	"mining-invest-go/internal/common"
	"mining-invest-go/internal/config"
	"mining-invest-go/internal/database"
	"mining-invest-go/internal/models"

	"go.uber.org/zap"
)

type reportStats struct {
	totalMiners             int
	totalSubscriptions      int
	minersWithSubscriptions int
	driftingSubscriptions   int
}

func formatSubscriptionId(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func printSubscription(ctx context.Context, dbService *database.Service, sub models.MiningSubscription, isLast bool) bool {
	symbol := common.BoxPrefix(isLast)
	detail := common.BoxDetailPrefix(isLast)

	contract, err := dbService.GetContractById(ctx, sub.ContractId)
	contractName := "unknown"
	if err == nil {
		contractName = fmt.Sprintf("%s (%s%% / %s)", contract.Name, contract.PeriodReturnPercent.String(), contract.Period)
	}

	fmt.Printf("%s %-12s: deposited %12s, earned %12s (v%d)\n",
		symbol,
		formatSubscriptionId(sub.Id),
		sub.AmountDeposited.String(),
		sub.TotalEarnings.String(),
		sub.Version)
	fmt.Printf("%s   contract: %s\n", detail, contractName)

	available, err := dbService.AvailableEarnings(ctx, sub.Id)
	if err == nil {
		fmt.Printf("%s   withdrawable: %s\n", detail, available.String())
	}

	// Flag drift between the running total and the audit ledger.
	if err := dbService.ReconcileSubscriptionEarnings(ctx, sub.Id); err != nil {
		fmt.Printf("%s   !! LEDGER DRIFT: %v\n", detail, err)
		return true
	}
	return false
}

func printMinerHeader(miner common.MinerInfo, subscriptionCount int) {
	fmt.Printf("\n┌─ Miner: %s (%s)\n", miner.Name, miner.Email)
	fmt.Printf("│  ID: %s\n", miner.Id)
	fmt.Printf("│  Subscriptions: %d\n", subscriptionCount)
	common.PrintBoxSeparator(78)
}

func processMiner(ctx context.Context, miner common.MinerInfo, dbService *database.Service) (int, int, error) {
	subs, err := dbService.GetMinerSubscriptions(ctx, miner.Id)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, 0, nil
	}

	printMinerHeader(miner, len(subs))

	drifting := 0
	for i, sub := range subs {
		if printSubscription(ctx, dbService, sub, i == len(subs)-1) {
			drifting++
		}
	}
	return len(subs), drifting, nil
}

func generateReport(ctx context.Context, miners []common.MinerInfo, dbService *database.Service, logger *zap.Logger) reportStats {
	stats := reportStats{}

	for _, miner := range miners {
		stats.totalMiners++

		subCount, drifting, err := processMiner(ctx, miner, dbService)
		if err != nil {
			logger.Error("Failed to process miner",
				zap.String("miner_id", miner.Id),
				zap.String("miner_name", miner.Name),
				zap.Error(err))
			continue
		}

		if subCount > 0 {
			stats.minersWithSubscriptions++
			stats.totalSubscriptions += subCount
			stats.driftingSubscriptions += drifting
		}
	}
	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific miner email (optional)")
	flag.Parse()

	logger.Info("Starting earnings report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	miners, err := common.ResolveMiners(ctx, services.DbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to resolve miners", zap.Error(err))
	}

	common.PrintHeader("MINER EARNINGS REPORT", common.DefaultWidth)

	stats := generateReport(ctx, miners, services.DbService, logger)

	summary := fmt.Sprintf("SUMMARY: %d miners with subscriptions (%d subscriptions, %d with ledger drift, %d miners queried)",
		stats.minersWithSubscriptions, stats.totalSubscriptions, stats.driftingSubscriptions, stats.totalMiners)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Earnings report completed",
		zap.Int("miners_queried", stats.totalMiners),
		zap.Int("subscriptions", stats.totalSubscriptions),
		zap.Int("ledger_drift", stats.driftingSubscriptions))
}
