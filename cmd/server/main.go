package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"mining-invest-go/internal/accrual"
	"mining-invest-go/internal/api"
	"mining-invest-go/internal/common"
	"mining-invest-go/internal/config"
	"mining-invest-go/internal/custody"
	"mining-invest-go/internal/jobs"
	"mining-invest-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting mining investment platform server")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	runner := accrual.NewRunner(accrual.RunnerConfig{
		Backend: services.DbService,
	})

	scheduler, err := jobs.NewScheduler(cfg.Accrual, runner)
	if err != nil {
		zap.L().Fatal("Failed to build accrual scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	watcher := startCustodyWatcher(ctx, cfg, services)
	if watcher != nil {
		defer watcher.Stop()
	}

	apiService := api.NewService(services.DbService, runner)
	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: apiService.Router(),
	}

	go func() {
		zap.L().Info("API server listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("API server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced API server shutdown", zap.Error(err))
	} else {
		zap.L().Info("API server stopped gracefully")
	}
}

// startCustodyWatcher wires the optional Prime deposit watcher. Returns
// nil when custody is disabled or misconfigured; the platform runs fine
// with bank-only deposits.
func startCustodyWatcher(ctx context.Context, cfg *models.Config, services *common.Services) *custody.Watcher {
	if !cfg.Custody.Enabled {
		return nil
	}

	creds, err := custody.LoadCredentials()
	if err != nil {
		zap.L().Warn("Custody enabled but credentials missing, watcher disabled", zap.Error(err))
		return nil
	}

	custodyService, err := custody.NewService(creds)
	if err != nil {
		zap.L().Warn("Failed to build custody client, watcher disabled", zap.Error(err))
		return nil
	}

	portfolio, err := custodyService.FindDefaultPortfolio(ctx)
	if err != nil {
		zap.L().Warn("Failed to resolve custody portfolio, watcher disabled", zap.Error(err))
		return nil
	}

	watcher := custody.NewWatcher(custody.WatcherConfig{
		CustodyService:  custodyService,
		Store:           services.DbService,
		PortfolioId:     portfolio.Id,
		LookbackWindow:  cfg.Custody.LookbackWindow,
		PollingInterval: cfg.Custody.PollingInterval,
		CleanupInterval: cfg.Custody.CleanupInterval,
	})
	if err := watcher.Start(ctx); err != nil {
		zap.L().Warn("Failed to start custody watcher", zap.Error(err))
		return nil
	}
	return watcher
}
