// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package servercache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/metrics"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/origin"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() config.CacheConfig {
	return config.CacheConfig{
		Backend:       "memory",
		MonthIndexTTL: 6 * time.Hour,
		MonthDataTTL:  24 * time.Hour,
		MetadataTTL:   6 * time.Hour,
		MaxEntryBytes: 100000,
	}
}

func rows() []models.RawRow {
	return []models.RawRow{
		{Name: "A", Group: "G", Gender: models.GenderMale, Platform: models.PlatformWeibo, Date: "2025.02", Count: "200"},
		{Name: "A", Group: "G", Gender: models.GenderMale, Platform: models.PlatformWeibo, Date: "2025.01", Count: "100"},
		{Name: "B", Group: "G", Gender: models.GenderMale, Platform: models.PlatformWeibo, Date: "2025.02", Count: "1,500"},
		{Name: "C", Group: "H", Gender: models.GenderFemale, Platform: models.PlatformWeibo, Date: "2025.03", Count: "9"},
	}
}

func newTestCache(t *testing.T, cfg config.CacheConfig) (*Cache, *origin.MemorySource, *clock) {
	t.Helper()
	src := origin.NewMemorySource(rows())
	clk := &clock{now: time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)}
	return New(cache.NewMemoryBackend(), src, cfg, cache.WithClock(clk.Now)), src, clk
}

func TestGetMonthIndex_ReadThrough(t *testing.T) {
	c, src, _ := newTestCache(t, testConfig())
	ctx := context.Background()

	got, err := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformWeibo)
	if err != nil {
		t.Fatalf("GetMonthIndex() error = %v", err)
	}
	want := []string{"2025-01", "2025-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetMonthIndex() = %v, want %v", got, want)
	}

	if _, err := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformWeibo); err != nil {
		t.Fatal(err)
	}
	if src.Scans() != 1 {
		t.Errorf("origin scanned %d times, want 1 (second read is a hit)", src.Scans())
	}
}

func TestGetMonthIndex_Expiry(t *testing.T) {
	c, src, clk := newTestCache(t, testConfig())
	ctx := context.Background()

	if _, err := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformWeibo); err != nil {
		t.Fatal(err)
	}
	clk.Advance(6 * time.Hour)
	if _, err := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformWeibo); err != nil {
		t.Fatal(err)
	}
	if src.Scans() != 1 {
		t.Errorf("entry at exactly its TTL should still be fresh, scans = %d", src.Scans())
	}

	clk.Advance(time.Millisecond)
	if _, err := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformWeibo); err != nil {
		t.Fatal(err)
	}
	if src.Scans() != 2 {
		t.Errorf("expired entry should be refetched, scans = %d", src.Scans())
	}
}

func TestGetMonthData_Idempotent(t *testing.T) {
	c, _, _ := newTestCache(t, testConfig())
	ctx := context.Background()

	first, err := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02")
	if err != nil {
		t.Fatalf("GetMonthData() error = %v", err)
	}
	want := []models.MetricRecord{
		{Name: "A", Group: "G", Date: "2025-02", Count: 200},
		{Name: "B", Group: "G", Date: "2025-02", Count: 1500},
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("GetMonthData() = %+v, want %+v", first, want)
	}

	second, err := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached read differs: %+v vs %+v", first, second)
	}

	empty, err := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "1999-01")
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown month = %v, %v; want empty, nil", empty, err)
	}
}

func TestGetMonthData_SizeGuard(t *testing.T) {
	var big []models.RawRow
	for i := 0; i < 50; i++ {
		big = append(big, models.RawRow{
			Name: fmt.Sprintf("idol-%02d", i), Group: "G", Gender: models.GenderMale,
			Platform: models.PlatformX, Date: "2025-01", Count: "1000",
		})
	}
	cfg := testConfig()
	cfg.MaxEntryBytes = 500
	src := origin.NewMemorySource(big)
	c := New(cache.NewMemoryBackend(), src, cfg)
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.CacheRejectedWrites.WithLabelValues(StoreMonthData))
	got, err := c.GetMonthData(ctx, models.GenderMale, models.PlatformX, "2025-01")
	if err != nil {
		t.Fatalf("GetMonthData() error = %v", err)
	}
	if len(got) != 50 {
		t.Errorf("oversized payload should still be returned, got %d records", len(got))
	}
	if after := testutil.ToFloat64(metrics.CacheRejectedWrites.WithLabelValues(StoreMonthData)); after != before+1 {
		t.Errorf("rejected writes = %v, want %v", after, before+1)
	}

	if _, err := c.GetMonthData(ctx, models.GenderMale, models.PlatformX, "2025-01"); err != nil {
		t.Fatal(err)
	}
	if src.Scans() != 2 {
		t.Errorf("oversized entry should not be cached, scans = %d", src.Scans())
	}
}

func TestGetMonthData_OriginFailure(t *testing.T) {
	c, src, _ := newTestCache(t, testConfig())
	src.SetError(fmt.Errorf("%w: sheet missing", origin.ErrSourceUnavailable))

	if _, err := c.GetMonthData(context.Background(), models.GenderMale, models.PlatformWeibo, "2025-01"); !errors.Is(err, origin.ErrSourceUnavailable) {
		t.Errorf("GetMonthData() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestMetadata(t *testing.T) {
	c, src, _ := newTestCache(t, testConfig())
	src.SetMetadata(models.GenderFemale, origin.MetadataTable{
		Headers: []string{"name", "group", "gender"},
		Rows: [][]string{
			{"카리나", "aespa", "여자"},
			{"윈터", "aespa", "여자"},
		},
	})
	ctx := context.Background()

	all, err := c.GetAllMetadata(ctx, models.GenderFemale)
	if err != nil || len(all) != 2 {
		t.Fatalf("GetAllMetadata() = %d records, %v", len(all), err)
	}
	if _, err := c.GetAllMetadata(ctx, models.GenderFemale); err != nil {
		t.Fatal(err)
	}
	if src.Scans() != 1 {
		t.Errorf("bulk metadata should be cached, scans = %d", src.Scans())
	}

	one, err := c.GetMetadata(ctx, "윈터", models.GenderFemale)
	if err != nil || one.Group != "aespa" {
		t.Errorf("GetMetadata() = %+v, %v", one, err)
	}
	if _, err := c.GetMetadata(ctx, "닝닝", models.GenderFemale); !errors.Is(err, origin.ErrNotFound) {
		t.Errorf("GetMetadata(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestPutAndSweep(t *testing.T) {
	c, src, clk := newTestCache(t, testConfig())
	ctx := context.Background()

	if err := c.PutMonthIndex(ctx, models.GenderMale, models.PlatformSpotify, []string{"2025-01"}); err != nil {
		t.Fatal(err)
	}
	if err := c.PutMonthData(ctx, models.GenderMale, models.PlatformSpotify, "2025-01", []models.MetricRecord{{Name: "A", Date: "2025-01", Count: 1}}); err != nil {
		t.Fatal(err)
	}

	months, err := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformSpotify)
	if err != nil || !reflect.DeepEqual(months, []string{"2025-01"}) {
		t.Errorf("GetMonthIndex() after Put = %v, %v", months, err)
	}
	if src.Scans() != 0 {
		t.Errorf("warm entries should be served without the origin, scans = %d", src.Scans())
	}

	counts, err := c.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[StoreMonthIndex] != 1 || counts[StoreMonthData] != 1 {
		t.Errorf("Counts() = %v", counts)
	}

	clk.Advance(7 * time.Hour)
	removed, err := c.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("Sweep() removed %d, want 1 (only the index is past its TTL)", removed)
	}
	if hits := c.Stats()[StoreMonthIndex].Hits; hits != 1 {
		t.Errorf("index hits = %d, want 1", hits)
	}
}
