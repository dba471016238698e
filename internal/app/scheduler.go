/**
 * @description
 * Cron scheduler for the periodic currency rate refresh.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const rateRefreshTimeout = 30 * time.Second

// Scheduler manages the rate refresh cron job.
type Scheduler struct {
	cron      *cron.Cron
	refresher *RateRefresher
	schedule  string
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(refresher *RateRefresher, schedule string, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:      c,
		refresher: refresher,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start registers the refresh job and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.schedule, s.runRefresh); err != nil {
		s.logger.Error("failed to schedule rate refresh job", "schedule", s.schedule, "error", err)
		return
	}
	s.logger.Info("scheduled rate refresh job", "schedule", s.schedule)
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), rateRefreshTimeout)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Error("rate refresh failed", "error", err)
	}
}
