// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package clientcache is the terminal client's persistent cache.
//
// Three collections share one BadgerDB directory:
//
//	sns_data/   month records per (gender, platform, month)   24h
//	months/     month index per (gender, platform)             6h
//	metadata/   idol metadata per (name, gender)               7d
//
// A stored schema version gates the whole directory: when it differs from
// the configured version every collection is dropped and the new version is
// written.
package clientcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/validation"
)

// Collection names, also used as metric labels.
const (
	CollectionMonthData  = "sns_data"
	CollectionMonthIndex = "months"
	CollectionMetadata   = "metadata"
)

const schemaVersionKey = "schema_version"

// Stats holds per-collection entry counts.
type Stats struct {
	MonthData  int `json:"sns_data"`
	MonthIndex int `json:"months"`
	Metadata   int `json:"metadata"`
}

// Total returns the number of entries across all collections.
func (s Stats) Total() int {
	return s.MonthData + s.MonthIndex + s.Metadata
}

// Cache is the client persistent cache.
type Cache struct {
	backend  cache.Backend
	owned    bool
	data     *cache.Store[[]models.MetricRecord]
	months   *cache.Store[[]string]
	metadata *cache.Store[models.IdolMetadata]

	dataTTL, indexTTL, metadataTTL time.Duration
}

// Open opens the BadgerDB directory at cfg.CacheDir. Close releases it.
func Open(ctx context.Context, cfg config.ClientConfig) (*Cache, error) {
	backend, err := cache.OpenBadger(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	c, err := New(ctx, backend, cfg)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// New builds the cache on an existing backend and applies the schema gate.
func New(ctx context.Context, backend cache.Backend, cfg config.ClientConfig, opts ...cache.Option) (*Cache, error) {
	withPrefix := func(prefix string) []cache.Option {
		return append([]cache.Option{cache.WithPrefix(prefix)}, opts...)
	}
	c := &Cache{
		backend:     backend,
		data:        cache.NewStore[[]models.MetricRecord](backend, "client_"+CollectionMonthData, withPrefix(CollectionMonthData+"/")...),
		months:      cache.NewStore[[]string](backend, "client_"+CollectionMonthIndex, withPrefix(CollectionMonthIndex+"/")...),
		metadata:    cache.NewStore[models.IdolMetadata](backend, "client_"+CollectionMetadata, withPrefix(CollectionMetadata+"/")...),
		dataTTL:     cfg.MonthDataTTL,
		indexTTL:    cfg.MonthIndexTTL,
		metadataTTL: cfg.MetadataTTL,
	}
	if err := c.checkSchema(ctx, cfg.SchemaVersion); err != nil {
		return nil, err
	}
	return c, nil
}

// checkSchema drops every collection when the stored version differs.
func (c *Cache) checkSchema(ctx context.Context, version int) error {
	raw, ok, err := c.backend.Get(schemaVersionKey)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if ok {
		if stored, perr := strconv.Atoi(string(raw)); perr == nil && stored == version {
			return nil
		}
		logging.Ctx(ctx).Info().
			Str("stored", string(raw)).
			Int("version", version).
			Msg("Client cache schema changed, dropping collections")
		if err := c.ClearAll(ctx); err != nil {
			return err
		}
	}
	if err := c.backend.Set(schemaVersionKey, []byte(strconv.Itoa(version))); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// Close releases the backend when Open created it.
func (c *Cache) Close() error {
	if !c.owned {
		return nil
	}
	return c.backend.Close()
}

// SaveMonthData stores one month's records.
func (c *Cache) SaveMonthData(ctx context.Context, gender, platform, month string, records []models.MetricRecord) error {
	return c.data.Put(ctx, cache.MonthDataKey(gender, platform, month), records, c.dataTTL)
}

// GetMonthData returns one month's records. Records that fail validation
// are dropped.
func (c *Cache) GetMonthData(ctx context.Context, gender, platform, month string) ([]models.MetricRecord, bool, error) {
	records, ok, err := c.data.Get(ctx, cache.MonthDataKey(gender, platform, month))
	if err != nil || !ok {
		return nil, false, err
	}
	valid, dropped := validation.FilterRecords(records)
	if dropped > 0 {
		logging.Ctx(ctx).Warn().Int("dropped", dropped).Str("month", month).Msg("Dropped invalid cached records")
	}
	return valid, true, nil
}

// DeleteMonthData removes one month's records.
func (c *Cache) DeleteMonthData(ctx context.Context, gender, platform, month string) error {
	return c.data.Delete(ctx, cache.MonthDataKey(gender, platform, month))
}

// SaveMonthIndex stores the month index.
func (c *Cache) SaveMonthIndex(ctx context.Context, gender, platform string, months []string) error {
	return c.months.Put(ctx, cache.MonthIndexKey(gender, platform), months, c.indexTTL)
}

// GetMonthIndex returns the month index.
func (c *Cache) GetMonthIndex(ctx context.Context, gender, platform string) ([]string, bool, error) {
	return c.months.Get(ctx, cache.MonthIndexKey(gender, platform))
}

// SaveMetadata stores one idol's metadata under (meta.Name, gender).
func (c *Cache) SaveMetadata(ctx context.Context, meta models.IdolMetadata, gender string) error {
	if verr := validation.ValidateStruct(&meta); verr != nil {
		return fmt.Errorf("save metadata: %w", verr)
	}
	return c.metadata.Put(ctx, cache.MetadataKey(meta.Name, gender), meta, c.metadataTTL)
}

// GetMetadata returns one idol's metadata.
func (c *Cache) GetMetadata(ctx context.Context, name, gender string) (models.IdolMetadata, bool, error) {
	return c.metadata.Get(ctx, cache.MetadataKey(name, gender))
}

// CleanupExpired deletes expired entries in every collection, oldest first,
// and returns the number removed.
func (c *Cache) CleanupExpired(ctx context.Context) (int, error) {
	total := 0
	for _, sweep := range []func(context.Context) (int, error){c.data.Sweep, c.months.Sweep, c.metadata.Sweep} {
		n, err := sweep(ctx)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// StartCleanup runs CleanupExpired once after delay in the background. The
// returned channel is closed when the sweep finishes or ctx is cancelled.
func (c *Cache) StartCleanup(ctx context.Context, delay time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		n, err := c.CleanupExpired(ctx)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("removed", n).Msg("Client cache cleanup failed")
			return
		}
		if n > 0 {
			logging.Ctx(ctx).Info().Int("removed", n).Msg("Client cache cleanup complete")
		}
	}()
	return done
}

// ClearAll drops every collection. The schema version is kept.
func (c *Cache) ClearAll(ctx context.Context) error {
	if err := c.data.Clear(ctx); err != nil {
		return err
	}
	if err := c.months.Clear(ctx); err != nil {
		return err
	}
	return c.metadata.Clear(ctx)
}

// Stats returns per-collection entry counts, expired entries included.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.MonthData, err = c.data.Count(ctx); err != nil {
		return s, err
	}
	if s.MonthIndex, err = c.months.Count(ctx); err != nil {
		return s, err
	}
	if s.Metadata, err = c.metadata.Count(ctx); err != nil {
		return s, err
	}
	return s, nil
}
