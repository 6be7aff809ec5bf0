// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package orchestrator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/client"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/ranking"
)

// topMetadataCount is how many visible idols get their metadata fetched
// right after a render.
const topMetadataCount = 10

// prefetchTopMetadata fetches metadata for the top ranked idols of view in
// parallel. Names already in memory are skipped; failures are logged. A
// call while a top prefetch is running is a no-op.
func (o *Orchestrator) prefetchTopMetadata(ctx context.Context, view View) {
	o.mu.Lock()
	if o.topMetadataLoading {
		o.mu.Unlock()
		return
	}
	o.topMetadataLoading = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.topMetadataLoading = false
		o.mu.Unlock()
	}()

	entries := view.Ranked("")
	if len(entries) > topMetadataCount {
		entries = entries[:topMetadataCount]
	}

	var g errgroup.Group
	for _, e := range entries {
		name := e.Name
		if _, ok := o.cachedMetadata(name, view.Gender); ok {
			continue
		}
		g.Go(func() error {
			meta, err := o.api.Metadata(ctx, name, view.Gender)
			if err != nil {
				logging.Ctx(ctx).Debug().Err(err).Str("name", name).Msg("Top metadata prefetch failed")
				return nil
			}
			o.rememberMetadata(ctx, meta, view.Gender)
			return nil
		})
	}
	_ = g.Wait()
}

// PrefetchMetadata loads the full metadata list for the current gender,
// then for the opposite gender after the configured spacing. Genders that
// were already loaded are skipped. A call while a prefetch is running is a
// no-op.
func (o *Orchestrator) PrefetchMetadata(ctx context.Context) {
	o.mu.Lock()
	if o.metadataLoading {
		o.mu.Unlock()
		return
	}
	o.metadataLoading = true
	gender := o.gender
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.metadataLoading = false
		o.mu.Unlock()
	}()

	o.loadAllMetadata(ctx, gender)
	if sleepCtx(ctx, o.cfg.MetadataSpacing) != nil {
		return
	}
	o.loadAllMetadata(ctx, models.OppositeGender(gender))
}

func (o *Orchestrator) loadAllMetadata(ctx context.Context, gender string) {
	o.mu.Lock()
	loaded := o.metadataLoaded[gender]
	o.mu.Unlock()
	if loaded {
		return
	}

	all, err := o.api.AllMetadata(ctx, gender)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("gender", gender).Msg("Metadata prefetch failed")
		return
	}
	for _, meta := range all {
		o.rememberMetadata(ctx, meta, gender)
	}

	o.mu.Lock()
	o.metadataLoaded[gender] = true
	o.mu.Unlock()
	logging.Ctx(ctx).Debug().Int("count", len(all)).Str("gender", gender).Msg("Metadata cached")
}

// Detail returns an idol's metadata for the selected gender: from memory,
// then the persistent cache, then the API. Fetched records are cached.
func (o *Orchestrator) Detail(ctx context.Context, name string) (models.IdolMetadata, error) {
	o.mu.Lock()
	gender := o.gender
	o.mu.Unlock()

	if meta, ok := o.cachedMetadata(name, gender); ok {
		return meta, nil
	}

	if meta, ok, err := o.store.GetMetadata(ctx, name, gender); err == nil && ok {
		o.mu.Lock()
		o.metadata[cache.MetadataKey(name, gender)] = meta
		o.mu.Unlock()
		return meta, nil
	}

	meta, err := o.api.Metadata(ctx, name, gender)
	if err != nil {
		return models.IdolMetadata{}, fmt.Errorf("detail %s: %w", name, err)
	}
	o.rememberMetadata(ctx, meta, gender)
	return meta, nil
}

func (o *Orchestrator) cachedMetadata(name, gender string) (models.IdolMetadata, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	meta, ok := o.metadata[cache.MetadataKey(name, gender)]
	return meta, ok
}

// rememberMetadata keeps meta in memory and persists it.
func (o *Orchestrator) rememberMetadata(ctx context.Context, meta models.IdolMetadata, gender string) {
	o.mu.Lock()
	o.metadata[cache.MetadataKey(meta.Name, gender)] = meta
	o.mu.Unlock()

	if err := o.store.SaveMetadata(ctx, meta, gender); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("name", meta.Name).Msg("Failed to persist metadata")
	}
}

type neighbor struct {
	gender string
	month  string
}

// PrefetchNeighbors loads the months a user is likely to open next: the
// previous month, the same month for the opposite gender, and the previous
// month for the opposite gender. Only missing months are fetched, paced by
// the prefetch rate limiter. It does nothing in save-data mode or while
// another neighbor prefetch is running.
func (o *Orchestrator) PrefetchNeighbors(ctx context.Context) error {
	if o.cfg.SaveData {
		return nil
	}

	o.mu.Lock()
	if o.neighborLoading {
		o.mu.Unlock()
		return nil
	}
	o.neighborLoading = true
	gen := o.generation
	gender, platform, month := o.gender, o.platform, o.month
	months := append([]string(nil), o.months...)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.neighborLoading = false
		o.mu.Unlock()
	}()

	idx := -1
	for i, m := range months {
		if m == month {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}

	opposite := models.OppositeGender(gender)
	candidates := make([]neighbor, 0, 3)
	if idx > 0 {
		candidates = append(candidates, neighbor{gender, months[idx-1]})
	}
	candidates = append(candidates, neighbor{opposite, month})
	if idx > 0 {
		candidates = append(candidates, neighbor{opposite, months[idx-1]})
	}

	for _, c := range candidates {
		if o.hasNeighbor(ctx, gen, platform, c, months) {
			continue
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := o.api.Data(ctx, client.DataQuery{Gender: c.gender, Platform: platform, Month: c.month})
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Str("gender", c.gender).Str("month", c.month).Msg("Neighbor prefetch failed")
			continue
		}

		buckets := bucketByMonth(resp.Data)
		o.persist(ctx, c.gender, platform, buckets)
		if c.gender != gender {
			if err := o.store.SaveMonthIndex(ctx, c.gender, platform, resp.Meta.AllMonths); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist month index")
			}
			continue
		}

		o.mu.Lock()
		if gen == o.generation {
			o.replaceLocked(buckets)
		}
		o.mu.Unlock()
	}
	return nil
}

// hasNeighbor reports whether a candidate month and its base month are
// already available: in the working set for the selected gender, in the
// persistent cache for the opposite one.
func (o *Orchestrator) hasNeighbor(ctx context.Context, gen uint64, platform string, c neighbor, months []string) bool {
	base := ranking.BaseMonth(c.month, months)

	o.mu.Lock()
	sameGender := c.gender == o.gender && gen == o.generation
	inMemory := len(o.working[c.month]) > 0 && len(o.working[base]) > 0
	o.mu.Unlock()
	if sameGender {
		return inMemory
	}

	for _, m := range []string{c.month, base} {
		if _, ok, err := o.store.GetMonthData(ctx, c.gender, platform, m); err != nil || !ok {
			return false
		}
	}
	return true
}
