// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package services

import (
	"context"
	"time"

	"github.com/tomtom215/idolstats/internal/logging"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper removes expired entries and reports how many. Counts refreshes
// the cache size gauges. Satisfied by *servercache.Cache.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
	Counts(ctx context.Context) (map[string]int, error)
}

// CacheSweepService periodically sweeps expired server cache entries and
// refreshes the cache size gauges. Expired entries are never served either
// way; sweeping only reclaims space in persistent backends.
type CacheSweepService struct {
	cache    Sweeper
	gc       GarbageCollector
	interval time.Duration
	name     string
}

// GarbageCollector reclaims space after deletions. Satisfied by
// *cache.BadgerBackend.
type GarbageCollector interface {
	RunGC() error
}

// SweepOption configures a CacheSweepService.
type SweepOption func(*CacheSweepService)

// WithGarbageCollector runs gc after every sweep that removed entries.
func WithGarbageCollector(gc GarbageCollector) SweepOption {
	return func(s *CacheSweepService) { s.gc = gc }
}

// NewCacheSweepService creates a sweep service. A non-positive interval
// uses DefaultSweepInterval.
func NewCacheSweepService(cache Sweeper, interval time.Duration, opts ...SweepOption) *CacheSweepService {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s := &CacheSweepService{
		cache:    cache,
		interval: interval,
		name:     "cache-sweep",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve implements suture.Service. A failed sweep is logged and retried on
// the next tick; it does not restart the service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.cache.Sweep(ctx)
			if err != nil {
				logger.Warn().Err(err).Int("removed", removed).Msg("Cache sweep failed")
				continue
			}
			if removed > 0 {
				logger.Debug().Int("removed", removed).Msg("Expired cache entries swept")
				if s.gc != nil {
					if err := s.gc.RunGC(); err != nil {
						logger.Warn().Err(err).Msg("Cache garbage collection failed")
					}
				}
			}
			if _, err := s.cache.Counts(ctx); err != nil {
				logger.Debug().Err(err).Msg("Cache size refresh failed")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheSweepService) String() string {
	return s.name
}
