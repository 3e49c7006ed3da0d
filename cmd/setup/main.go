// Initializes the database schema and seeds the server/contract catalog
// from contracts.yaml. Safe to rerun: existing catalog entries are kept.
package main

import (
	"context"
	"flag"
	"fmt"

	"mining-invest-go/internal/common"
	"mining-invest-go/internal/config"
	"mining-invest-go/internal/models"
	"mining-invest-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func seedCatalog(ctx context.Context, services *common.Services, catalogFile string) error {
	zap.L().Info("Loading contract catalog", zap.String("file", catalogFile))
	catalog, err := common.LoadContractCatalog(catalogFile)
	if err != nil {
		return fmt.Errorf("failed to load contract catalog: %w", err)
	}

	existingServers, err := services.DbService.GetServers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}
	serversByName := make(map[string]models.MiningServer, len(existingServers))
	for _, server := range existingServers {
		serversByName[server.Name] = server
	}

	for _, entry := range catalog.Servers {
		if _, ok := serversByName[entry.Name]; ok {
			zap.L().Info("Server already exists, skipping", zap.String("name", entry.Name))
			continue
		}
		server, err := services.DbService.CreateServer(ctx, entry.Name, entry.Location, entry.HashRate)
		if err != nil {
			return fmt.Errorf("failed to create server %q: %w", entry.Name, err)
		}
		serversByName[entry.Name] = *server
		zap.L().Info("Server created",
			zap.String("name", server.Name),
			zap.String("id", server.Id))
	}

	existingContracts, err := services.DbService.GetContracts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list contracts: %w", err)
	}
	contractNames := make(map[string]bool, len(existingContracts))
	for _, contract := range existingContracts {
		contractNames[contract.Name] = true
	}

	for _, entry := range catalog.Contracts {
		if contractNames[entry.Name] {
			zap.L().Info("Contract already exists, skipping", zap.String("name", entry.Name))
			continue
		}
		server := serversByName[entry.Server]
		contract, err := services.DbService.CreateContract(ctx, store.CreateContractParams{
			ServerId:            server.Id,
			Name:                entry.Name,
			PeriodReturnPercent: decimal.RequireFromString(entry.PeriodReturnPercent),
			Period:              entry.Period,
		})
		if err != nil {
			return fmt.Errorf("failed to create contract %q: %w", entry.Name, err)
		}
		zap.L().Info("Contract created",
			zap.String("name", contract.Name),
			zap.String("id", contract.Id),
			zap.String("period", contract.Period),
			zap.String("period_return_percent", contract.PeriodReturnPercent.String()))
	}

	return nil
}

func seedDemoMiners(ctx context.Context, services *common.Services) {
	demo := []struct {
		name  string
		email string
	}{
		{"Alice Example", "alice@example.com"},
		{"Bob Example", "bob@example.com"},
	}

	for _, miner := range demo {
		created, err := services.DbService.CreateMiner(ctx, miner.name, miner.email)
		if err != nil {
			zap.L().Info("Demo miner not created (may already exist)",
				zap.String("email", miner.email),
				zap.Error(err))
			continue
		}
		zap.L().Info("Demo miner created",
			zap.String("name", created.Name),
			zap.String("id", created.Id))
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	demoFlag := flag.Bool("demo", false, "Create demo miner accounts")
	catalogFlag := flag.String("catalog", "", "Path to contract catalog (default: CONTRACTS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the database creates the schema.
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	catalogFile := *catalogFlag
	if catalogFile == "" {
		catalogFile = cfg.Accrual.ContractsFile
	}

	if err := seedCatalog(ctx, services, catalogFile); err != nil {
		zap.L().Fatal("Catalog seeding failed", zap.Error(err))
	}

	if *demoFlag {
		seedDemoMiners(ctx, services)
	}

	zap.L().Info("Setup complete")
}
