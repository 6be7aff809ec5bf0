// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/metrics"
)

// ErrTooLarge is returned by Put when the serialized payload reaches the
// store's size ceiling. Nothing is written.
var ErrTooLarge = errors.New("cache: payload too large")

// TTLCache is the contract both cache tiers are written against.
type TTLCache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Put(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// envelope is the stored form of every entry.
type envelope struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"` // unix ms
	TTL       int64           `json:"ttl"`       // ms
}

func (e *envelope) expired(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp > e.TTL
}

// Stats is a point-in-time view of a store's activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Rejected  int64
}

// HitRate returns the hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Store is a typed TTL collection on top of a Backend.
type Store[T any] struct {
	backend  Backend
	name     string
	prefix   string
	maxBytes int
	now      func() time.Time
	logger   zerolog.Logger

	hits, misses, evictions, rejected atomic.Int64
}

// Option configures a Store.
type Option func(*options)

type options struct {
	prefix   string
	maxBytes int
	now      func() time.Time
}

// WithPrefix scopes the store to a key prefix inside a shared backend.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithMaxEntryBytes rejects payloads whose serialized size is >= n bytes.
// Zero disables the check.
func WithMaxEntryBytes(n int) Option {
	return func(o *options) { o.maxBytes = n }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewStore creates a store named name. The name labels metrics and logs.
func NewStore[T any](backend Backend, name string, opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{
		backend:  backend,
		name:     name,
		prefix:   o.prefix,
		maxBytes: o.maxBytes,
		now:      o.now,
		logger:   logging.With().Str("component", "cache").Str("store", name).Logger(),
	}
}

// Name returns the store's name.
func (s *Store[T]) Name() string {
	return s.name
}

// Get returns the fresh value for key. An expired entry is deleted and
// reported as a miss; a failure to delete it is logged, not returned.
func (s *Store[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	raw, ok, err := s.backend.Get(s.prefix + key)
	if err != nil {
		return zero, false, fmt.Errorf("cache %s get %s: %w", s.name, key, err)
	}
	if !ok {
		s.miss()
		return zero, false, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dropping unreadable cache entry")
		s.evict(key)
		s.miss()
		return zero, false, nil
	}

	if env.expired(s.now()) {
		s.evict(key)
		s.miss()
		return zero, false, nil
	}

	var value T
	if err := json.Unmarshal(env.Payload, &value); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache payload")
		s.evict(key)
		s.miss()
		return zero, false, nil
	}

	s.hits.Add(1)
	metrics.RecordCacheLookup(s.name, true)
	return value, true, nil
}

// Put stores value under key for ttl. Returns ErrTooLarge when the payload
// exceeds the configured ceiling.
func (s *Store[T]) Put(ctx context.Context, key string, value T, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache %s encode %s: %w", s.name, key, err)
	}
	if s.maxBytes > 0 && len(payload) >= s.maxBytes {
		s.rejected.Add(1)
		metrics.CacheRejectedWrites.WithLabelValues(s.name).Inc()
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrTooLarge, key, len(payload), s.maxBytes)
	}

	raw, err := json.Marshal(envelope{
		Key:       key,
		Payload:   payload,
		Timestamp: s.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("cache %s encode envelope %s: %w", s.name, key, err)
	}

	if err := s.backend.Set(s.prefix+key, raw); err != nil {
		return fmt.Errorf("cache %s put %s: %w", s.name, key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store[T]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.Delete(s.prefix + key); err != nil {
		return fmt.Errorf("cache %s delete %s: %w", s.name, key, err)
	}
	return nil
}

// Sweep deletes every expired entry, oldest write first, and returns how
// many were removed. Entries that cannot be decoded are removed too.
func (s *Store[T]) Sweep(ctx context.Context) (int, error) {
	type candidate struct {
		key       string
		timestamp int64
	}

	now := s.now()
	var expired []candidate
	err := s.backend.Scan(s.prefix, func(fullKey string, value []byte) error {
		var env envelope
		if err := json.Unmarshal(value, &env); err != nil || env.expired(now) {
			expired = append(expired, candidate{key: fullKey[len(s.prefix):], timestamp: env.Timestamp})
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache %s sweep scan: %w", s.name, err)
	}

	sort.SliceStable(expired, func(i, j int) bool {
		return expired[i].timestamp < expired[j].timestamp
	})

	removed := 0
	for _, c := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.backend.Delete(s.prefix + c.key); err != nil {
			return removed, fmt.Errorf("cache %s sweep delete %s: %w", s.name, c.key, err)
		}
		removed++
	}

	if removed > 0 {
		s.evictions.Add(int64(removed))
		metrics.CacheEvictions.WithLabelValues(s.name).Add(float64(removed))
		s.logger.Debug().Int("removed", removed).Msg("swept expired entries")
	}
	return removed, nil
}

// Count returns the number of stored entries, fresh or not.
func (s *Store[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := s.backend.Scan(s.prefix, func(string, []byte) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache %s count: %w", s.name, err)
	}
	metrics.CacheSize.WithLabelValues(s.name).Set(float64(n))
	return n, nil
}

// Clear removes every entry of this store.
func (s *Store[T]) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.backend.DropPrefix(s.prefix); err != nil {
		return fmt.Errorf("cache %s clear: %w", s.name, err)
	}
	return nil
}

// Stats returns the store's counters since creation.
func (s *Store[T]) Stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
		Rejected:  s.rejected.Load(),
	}
}

func (s *Store[T]) miss() {
	s.misses.Add(1)
	metrics.RecordCacheLookup(s.name, false)
}

func (s *Store[T]) evict(key string) {
	if err := s.backend.Delete(s.prefix + key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to delete stale cache entry")
		return
	}
	s.evictions.Add(1)
	metrics.CacheEvictions.WithLabelValues(s.name).Inc()
}
