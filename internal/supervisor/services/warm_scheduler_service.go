// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package services

import (
	"context"
	"fmt"
)

// SchedulerManager matches the warm scheduler lifecycle. Satisfied by
// *warmer.Scheduler.
type SchedulerManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// WarmSchedulerService adapts the scheduler's Start/Stop lifecycle to
// suture's Serve pattern.
type WarmSchedulerService struct {
	manager SchedulerManager
	name    string
}

// NewWarmSchedulerService creates a new warm scheduler service wrapper.
//
//	scheduler, err := warmer.NewScheduler(w, notifier, cfg.Warmer)
//	tree.AddJobsService(services.NewWarmSchedulerService(scheduler))
func NewWarmSchedulerService(manager SchedulerManager) *WarmSchedulerService {
	return &WarmSchedulerService{
		manager: manager,
		name:    "warm-scheduler",
	}
}

// Serve implements suture.Service. A Start error is returned so suture
// restarts the service under its backoff policy.
func (s *WarmSchedulerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("warm scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("warm scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *WarmSchedulerService) String() string {
	return s.name
}
