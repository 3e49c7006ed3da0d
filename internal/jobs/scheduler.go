// Package jobs runs the background cron schedule: one daily accrual
// pass at the configured local midnight.
package jobs

import (
	"context"
	"fmt"
	"time"

	"mining-invest-go/internal/accrual"
	"mining-invest-go/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Scheduler struct {
	cron   *cron.Cron
	runner *accrual.Runner
}

// NewScheduler builds the cron schedule from config. The accrual job is
// registered but not started; call Start.
func NewScheduler(cfg models.AccrualConfig, runner *accrual.Runner) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.CronTimezone)
	if err != nil {
		return nil, fmt.Errorf("unable to load timezone %q: %w", cfg.CronTimezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	s := &Scheduler{
		cron:   c,
		runner: runner,
	}

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		// The runner is single-flight; a tick that lands while a manual
		// trigger is running simply reports in-progress and is dropped.
		summary, err := s.runner.RunDailyAccrual(context.Background())
		if err != nil {
			zap.L().Error("Scheduled accrual pass failed", zap.Error(err))
			return
		}
		zap.L().Info("Scheduled accrual pass complete",
			zap.Int("processed", summary.Processed),
			zap.Int("failed", summary.Failed),
			zap.Int("skipped", summary.Skipped))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", cfg.CronSchedule, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	zap.L().Info("Accrual scheduler started")
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	zap.L().Info("Accrual scheduler stopped")
}
