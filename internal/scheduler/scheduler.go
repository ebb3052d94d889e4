// Package scheduler runs periodic background jobs, currently the hourly
// performance summary.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"launch-sniper/internal/stats"
	"launch-sniper/internal/storage"
)

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New creates a stopped scheduler.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(), log: log}
}

// AddSummaryJob logs a performance report on the given cron schedule.
func (s *Scheduler) AddSummaryJob(ctx context.Context, spec string, trades storage.TradeRecordStore) error {
	_, err := s.cron.AddFunc(spec, func() {
		report, err := stats.FromStore(ctx, trades)
		if err != nil {
			s.log.Error("performance summary failed", zap.Error(err))
			return
		}
		s.log.Info("performance summary",
			zap.Int("total_trades", report.TotalTrades),
			zap.Int("wins", report.Wins),
			zap.Int("losses", report.Losses),
			zap.Float64("win_rate", report.WinRate),
			zap.Float64("total_pnl", report.TotalPnL),
			zap.Float64("avg_pnl", report.AvgPnL),
			zap.Any("exits", report.ExitCounts))
	})
	if err != nil {
		return fmt.Errorf("add summary job %q: %w", spec, err)
	}
	return nil
}

// Start begins running jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
