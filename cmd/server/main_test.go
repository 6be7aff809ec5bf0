// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/idolstats/internal/breaker"
	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/origin"
	"github.com/tomtom215/idolstats/internal/servercache"
)

func TestOpenBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		b, gc, err := openBackend(config.CacheConfig{Backend: "memory"})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := b.(*cache.MemoryBackend); !ok {
			t.Errorf("backend = %T, want *cache.MemoryBackend", b)
		}
		if gc != nil {
			t.Error("memory backend should not have a garbage collector")
		}
	})

	t.Run("badger", func(t *testing.T) {
		b, gc, err := openBackend(config.CacheConfig{Backend: "badger", Path: t.TempDir()})
		if err != nil {
			t.Fatal(err)
		}
		defer b.Close()
		if gc == nil {
			t.Error("badger backend should run value log GC")
		}
	})
}

func TestReadiness(t *testing.T) {
	mem := origin.NewMemorySource(nil)
	src := origin.NewGuarded(mem, breaker.Settings{Name: "readiness-test", ConsecutiveFailures: 1, Timeout: time.Minute})
	sc := servercache.New(cache.NewMemoryBackend(), src, config.CacheConfig{
		MonthIndexTTL: time.Hour, MonthDataTTL: time.Hour, MetadataTTL: time.Hour, MaxEntryBytes: 100000,
	})
	check := readiness(src, sc)
	ctx := context.Background()

	if got := check(ctx); !got["origin"] || !got["cache"] {
		t.Errorf("healthy checks = %v", got)
	}

	mem.SetError(errors.New("sheet unavailable"))
	_, _ = src.Rows(ctx)

	if got := check(ctx); got["origin"] {
		t.Errorf("open circuit should make the origin not ready: %v", got)
	}
}
