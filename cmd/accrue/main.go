// One-shot accrual run for external schedulers. The exit code reflects
// per-subscription failures so a wrapping cron job can alert on them.
package main

import (
	"context"
	"fmt"
	"os"

	"mining-invest-go/internal/accrual"
	"mining-invest-go/internal/common"
	"mining-invest-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load configuration", zap.Error(err))
		return 1
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize services", zap.Error(err))
		return 1
	}
	defer services.Close()

	runner := accrual.NewRunner(accrual.RunnerConfig{
		Backend: services.DbService,
	})

	summary, err := runner.RunDailyAccrual(ctx)
	if err != nil {
		zap.L().Error("Accrual run failed", zap.Error(err))
		return 1
	}

	fmt.Printf("Accrual complete: processed=%d failed=%d skipped=%d\n",
		summary.Processed, summary.Failed, summary.Skipped)

	if summary.Failed > 0 {
		return 2
	}
	return 0
}
