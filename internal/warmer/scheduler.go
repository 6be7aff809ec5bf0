// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package warmer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/schedule"
)

// ScheduledJob is a job with its trigger.
type ScheduledJob struct {
	Job      Job
	Schedule *schedule.Expression
}

// Scheduler runs warm jobs on their daily (or cron) schedule.
//
// Jobs that fall due at the same minute run one after another in
// configuration order. A failed job is reported through the notifier and
// not retried; its next scheduled run is the retry.
type Scheduler struct {
	warmer   *Warmer
	notifier Notifier
	jobs     []ScheduledJob
	loc      *time.Location
	enabled  bool
	now      func() time.Time
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock replaces time.Now, for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler builds a scheduler from the warmer configuration.
func NewScheduler(w *Warmer, n Notifier, cfg config.WarmerConfig, opts ...SchedulerOption) (*Scheduler, error) {
	jobs := make([]ScheduledJob, 0, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		expr, err := schedule.For(j.At, j.Cron)
		if err != nil {
			return nil, fmt.Errorf("warm job %s: %w", j.Name, err)
		}
		jobs = append(jobs, ScheduledJob{Job: JobFromConfig(j), Schedule: expr})
	}
	if n == nil {
		n = LogNotifier{}
	}

	s := &Scheduler{
		warmer:   w,
		notifier: n,
		jobs:     jobs,
		loc:      cfg.Location(),
		enabled:  cfg.Enabled,
		now:      time.Now,
		logger:   logging.WithComponent("warm-scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StartupJob is the full warm run at boot: every configured gender and
// platform, without a year scope.
func StartupJob(cfg config.WarmerConfig) Job {
	return Job{Name: "startup", Platforms: cfg.Platforms, Genders: cfg.Genders}
}

// NextRun returns the earliest trigger strictly after `after` and the jobs
// due at that minute. It returns the zero time when no job will ever run.
func (s *Scheduler) NextRun(after time.Time) (time.Time, []Job) {
	var next time.Time
	var due []Job
	for _, sj := range s.jobs {
		t := sj.Schedule.Next(after, s.loc)
		switch {
		case t.IsZero():
		case next.IsZero() || t.Before(next):
			next = t
			due = []Job{sj.Job}
		case t.Equal(next):
			due = append(due, sj.Job)
		}
	}
	return next, due
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.enabled || len(s.jobs) == 0 {
		s.logger.Info().Bool("enabled", s.enabled).Int("jobs", len(s.jobs)).Msg("Warm scheduler idle")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	s.logger.Info().
		Int("jobs", len(s.jobs)).
		Str("timezone", s.loc.String()).
		Msg("Starting warm scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for a running job to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Warm scheduler stopped")
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	// Stop cancels a job in flight.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	last := s.now()
	for {
		next, due := s.NextRun(last)
		if next.IsZero() {
			s.logger.Warn().Msg("No future trigger, scheduler waiting for shutdown")
			<-ctx.Done()
			return
		}
		s.logger.Debug().Time("next_run", next).Int("jobs", len(due)).Msg("Waiting for next warm run")

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		for _, job := range due {
			if ctx.Err() != nil {
				return
			}
			if _, err := job.Run(ctx, s.warmer, s.notifier); err != nil {
				s.logger.Error().Err(err).Str("job", job.Name).Msg("Scheduled warm job failed")
			}
		}
		last = next
	}
}
