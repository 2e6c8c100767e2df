// Package scheduler runs the periodic station directory refresh.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

const jobTimeout = 2 * time.Minute

// Refresher reloads the station directory regardless of its TTL.
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

// Scheduler periodically refreshes the station directory.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a scheduler. A non-positive interval disables the job.
func New(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		logger:    logger.With("component", "infra.scheduler"),
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("directory refresh job disabled")
		return nil
	}
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.run)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("directory refresh job scheduled", "interval", s.interval.String())
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.refresher.ForceRefresh(ctx); err != nil {
		s.logger.Warn("scheduled directory refresh failed", "error", err)
		return
	}
	s.logger.Info("scheduled directory refresh completed", "latency_ms", time.Since(start).Milliseconds())
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
