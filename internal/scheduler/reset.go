package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/services"
)

// Scheduler runs the monthly quota reset. Counters roll over at midnight
// UTC on the first of each month.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	log          *logger.Logger
	usageService services.UsageService
}

func New(log *logger.Logger, usageService services.UsageService) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler:    s,
		log:          log.With("service", "Scheduler"),
		usageService: usageService,
	}
}

func (s *Scheduler) Start() {
	if _, err := s.scheduler.Cron("0 0 1 * *").Do(s.resetMonthlyCounters); err != nil {
		s.log.Error("Failed to schedule monthly counter reset", "error", err)
		return
	}
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) resetMonthlyCounters() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	affected, err := s.usageService.ResetMonthlyCounters(ctx)
	if err != nil {
		s.log.Error("Monthly counter reset failed", "error", err)
		return
	}
	s.log.Info("Monthly counter reset complete", "users_affected", affected)
}
