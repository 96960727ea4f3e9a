package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
)

// Scheduler periodically runs the ingestion pipeline.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *ingest.Service
	interval  time.Duration
	runBudget time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler around the ingestion service.
func New(service *ingest.Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
		runBudget: 5 * time.Minute,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic ingestion job and runs the scheduler in the
// background.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runBudget)
		defer cancel()

		report, err := s.service.Run(ctx)
		if err != nil {
			s.logger.Error("scheduled ingestion failed", "error", err)
			return
		}
		s.logger.Info("scheduled ingestion finished",
			"processed", report.FilesProcessed,
			"failed", report.FilesFailed,
			"rows", report.RowsInserted)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
