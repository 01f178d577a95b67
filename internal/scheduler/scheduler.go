// Package scheduler runs the periodic upgrade trigger on a cron schedule.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Scheduler wraps gocron for the single recurring upgrade job. The schedule
// can be replaced at runtime when settings change.
type Scheduler struct {
	gocron gocron.Scheduler
	logger zerolog.Logger

	mu   sync.Mutex
	job  gocron.Job
	cron string
	fn   func()
}

// New creates a new scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{
		gocron: gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Start registers the upgrade job with the given cron expression and starts
// the scheduler.
func (s *Scheduler) Start(cron string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.gocron.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(fn),
		gocron.WithName("upgrade-cycle"),
	)
	if err != nil {
		return fmt.Errorf("failed to create upgrade job: %w", err)
	}

	s.job = job
	s.cron = cron
	s.fn = fn
	s.gocron.Start()
	s.logger.Info().Str("cron", cron).Msg("scheduler started")
	return nil
}

// Reschedule replaces the job's cron expression. A no-op when the
// expression is unchanged.
func (s *Scheduler) Reschedule(cron string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil || cron == s.cron {
		return nil
	}

	job, err := s.gocron.Update(
		s.job.ID(),
		gocron.CronJob(cron, false),
		gocron.NewTask(s.fn),
		gocron.WithName("upgrade-cycle"),
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule upgrade job: %w", err)
	}

	s.job = job
	s.cron = cron
	s.logger.Info().Str("cron", cron).Msg("upgrade job rescheduled")
	return nil
}

// NextRun returns the next scheduled run time, if a job is registered.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return nil
	}
	next, err := s.job.NextRun()
	if err != nil {
		return nil
	}
	return &next
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	if err := s.gocron.Shutdown(); err != nil {
		s.logger.Error().Err(err).Msg("scheduler shutdown failed")
	}
}
