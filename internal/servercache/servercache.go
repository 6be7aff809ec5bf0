// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package servercache is the server-side read-through cache in front of the
// origin.
//
// It caches three things, each in its own store on a shared backend:
//   - the month index of a (gender, platform) pair, for 6 hours by default
//   - one month of records of a (gender, platform) pair, for 24 hours
//   - the bulk metadata list of a gender, for 6 hours
//
// A miss scans the origin, derives the value and writes it back. Write
// failures, including payloads over the size ceiling, are logged and
// counted but never fail the read: the caller still gets the value.
package servercache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/origin"
)

// Store names, also used as metric labels.
const (
	StoreMonthIndex = "server_month_index"
	StoreMonthData  = "server_month_data"
	StoreMetadata   = "server_metadata"
)

// Cache is the server cache tier. It is safe for concurrent use.
type Cache struct {
	src      origin.Source
	index    *cache.Store[[]string]
	months   *cache.Store[[]models.MetricRecord]
	metadata *cache.Store[[]models.IdolMetadata]

	indexTTL    time.Duration
	monthTTL    time.Duration
	metadataTTL time.Duration

	logger zerolog.Logger
}

// New creates a cache over backend that fills misses from src. Extra store
// options (such as a test clock) apply to every store.
func New(backend cache.Backend, src origin.Source, cfg config.CacheConfig, opts ...cache.Option) *Cache {
	withPrefix := func(prefix string) []cache.Option {
		o := []cache.Option{cache.WithPrefix(prefix), cache.WithMaxEntryBytes(cfg.MaxEntryBytes)}
		return append(o, opts...)
	}
	return &Cache{
		src:         src,
		index:       cache.NewStore[[]string](backend, StoreMonthIndex, withPrefix("srv/index/")...),
		months:      cache.NewStore[[]models.MetricRecord](backend, StoreMonthData, withPrefix("srv/data/")...),
		metadata:    cache.NewStore[[]models.IdolMetadata](backend, StoreMetadata, withPrefix("srv/meta/")...),
		indexTTL:    cfg.MonthIndexTTL,
		monthTTL:    cfg.MonthDataTTL,
		metadataTTL: cfg.MetadataTTL,
		logger:      logging.WithComponent("servercache"),
	}
}

// GetMonthIndex returns the ascending month list for (gender, platform).
func (c *Cache) GetMonthIndex(ctx context.Context, gender, platform string) ([]string, error) {
	key := cache.MonthIndexKey(gender, platform)
	months, ok, err := c.index.Get(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to origin")
	} else if ok {
		return months, nil
	}

	rows, err := c.src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	months = origin.MonthIndex(rows, gender, platform, nil)
	c.write(ctx, key, c.index.Put(ctx, key, months, c.indexTTL))
	return months, nil
}

// GetMonthData returns the records of one month for (gender, platform).
// An unknown month yields an empty slice, not an error.
func (c *Cache) GetMonthData(ctx context.Context, gender, platform, month string) ([]models.MetricRecord, error) {
	key := cache.MonthDataKey(gender, platform, month)
	records, ok, err := c.months.Get(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to origin")
	} else if ok {
		return records, nil
	}

	rows, err := c.src.Rows(ctx)
	if err != nil {
		return nil, err
	}
	records = origin.MonthRecords(rows, gender, platform, month, nil)
	c.write(ctx, key, c.months.Put(ctx, key, records, c.monthTTL))
	return records, nil
}

// GetAllMetadata returns every metadata record of a gender.
func (c *Cache) GetAllMetadata(ctx context.Context, gender string) ([]models.IdolMetadata, error) {
	key := cache.AllMetadataKey(gender)
	list, ok, err := c.metadata.Get(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to origin")
	} else if ok {
		return list, nil
	}

	table, err := c.src.Metadata(ctx, gender)
	if err != nil {
		return nil, err
	}
	list = origin.AllMetadata(table, gender)
	c.write(ctx, key, c.metadata.Put(ctx, key, list, c.metadataTTL))
	return list, nil
}

// GetMetadata looks up one idol directly in the origin. Single lookups are
// not cached.
func (c *Cache) GetMetadata(ctx context.Context, name, gender string) (models.IdolMetadata, error) {
	table, err := c.src.Metadata(ctx, gender)
	if err != nil {
		return models.IdolMetadata{}, err
	}
	return origin.FindMetadata(table, name, gender)
}

// PutMonthIndex writes a month index. Used by the warmer.
func (c *Cache) PutMonthIndex(ctx context.Context, gender, platform string, months []string) error {
	return c.index.Put(ctx, cache.MonthIndexKey(gender, platform), months, c.indexTTL)
}

// PutMonthData writes one month of records. Returns cache.ErrTooLarge when
// the payload is over the ceiling.
func (c *Cache) PutMonthData(ctx context.Context, gender, platform, month string, records []models.MetricRecord) error {
	return c.months.Put(ctx, cache.MonthDataKey(gender, platform, month), records, c.monthTTL)
}

// Sweep removes expired entries from every store.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	total := 0
	for _, sweep := range []func(context.Context) (int, error){c.index.Sweep, c.months.Sweep, c.metadata.Sweep} {
		n, err := sweep(ctx)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Counts returns the number of stored entries per store.
func (c *Cache) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, 3)
	for name, count := range map[string]func(context.Context) (int, error){
		StoreMonthIndex: c.index.Count,
		StoreMonthData:  c.months.Count,
		StoreMetadata:   c.metadata.Count,
	} {
		n, err := count(ctx)
		if err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

// Stats returns hit/miss counters per store.
func (c *Cache) Stats() map[string]cache.Stats {
	return map[string]cache.Stats{
		StoreMonthIndex: c.index.Stats(),
		StoreMonthData:  c.months.Stats(),
		StoreMetadata:   c.metadata.Stats(),
	}
}

// write logs the outcome of a read-through write. It never fails the read.
func (c *Cache) write(ctx context.Context, key string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrTooLarge):
		logging.Ctx(ctx).Warn().Str("component", "servercache").Err(err).Str("key", key).Msg("Payload over size ceiling, not cached")
	default:
		logging.Ctx(ctx).Error().Str("component", "servercache").Err(err).Str("key", key).Msg("Cache write failed")
	}
}
