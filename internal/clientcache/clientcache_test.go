// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package clientcache

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/models"
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

func testConfig(dir string) config.ClientConfig {
	return config.ClientConfig{
		CacheDir:      dir,
		SchemaVersion: 1,
		MonthDataTTL:  24 * time.Hour,
		MonthIndexTTL: 6 * time.Hour,
		MetadataTTL:   7 * 24 * time.Hour,
	}
}

func newTestCache(t *testing.T) (*Cache, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c, err := New(context.Background(), cache.NewMemoryBackend(), testConfig(""), cache.WithClock(clk.Now))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, clk
}

var sample = []models.MetricRecord{
	{Name: "A", Group: "G", Date: "2025-02", Count: 200},
	{Name: "B", Group: "G", Date: "2025-02", Count: 1500},
}

func TestCache_MonthData(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02"); ok || err != nil {
		t.Fatalf("empty cache returned ok=%v err=%v", ok, err)
	}
	if err := c.SaveMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02", sample); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02")
	if err != nil || !ok || !reflect.DeepEqual(got, sample) {
		t.Fatalf("GetMonthData() = %v, %v, %v", got, ok, err)
	}
	if err := c.DeleteMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02"); ok {
		t.Error("deleted month still present")
	}
}

func TestCache_DropsInvalidRecords(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	mixed := append([]models.MetricRecord{{Name: "", Date: "2025-02", Count: 1}}, sample...)
	if err := c.SaveMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02", mixed); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02")
	if !ok || len(got) != 2 {
		t.Errorf("GetMonthData() = %v, want the two valid records", got)
	}
}

func TestCache_TTLPerCollection(t *testing.T) {
	c, clk := newTestCache(t)
	ctx := context.Background()

	if err := c.SaveMonthIndex(ctx, models.GenderMale, models.PlatformWeibo, []string{"2025-01", "2025-02"}); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02", sample); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveMetadata(ctx, models.IdolMetadata{Name: "A", Group: "G"}, models.GenderMale); err != nil {
		t.Fatal(err)
	}

	// Index expires after 6h, data survives until 24h, metadata until 7d.
	clk.Advance(6*time.Hour + time.Millisecond)
	if _, ok, _ := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformWeibo); ok {
		t.Error("month index should have expired")
	}
	if _, ok, _ := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02"); !ok {
		t.Error("month data should still be fresh")
	}

	clk.Advance(18 * time.Hour)
	if _, ok, _ := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02"); ok {
		t.Error("month data should have expired")
	}
	if m, ok, _ := c.GetMetadata(ctx, "A", models.GenderMale); !ok || m.Group != "G" {
		t.Errorf("metadata = %+v, %v", m, ok)
	}
}

func TestCache_ExpiredReadDeletes(t *testing.T) {
	c, clk := newTestCache(t)
	ctx := context.Background()

	if err := c.SaveMonthIndex(ctx, models.GenderMale, models.PlatformWeibo, []string{"2025-01"}); err != nil {
		t.Fatal(err)
	}
	clk.Advance(7 * time.Hour)

	if _, ok, _ := c.GetMonthIndex(ctx, models.GenderMale, models.PlatformWeibo); ok {
		t.Fatal("expected a miss")
	}
	s, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.MonthIndex != 0 {
		t.Errorf("Stats().MonthIndex = %d, want 0 after expired read", s.MonthIndex)
	}
}

func TestCache_CleanupExpiredAndStats(t *testing.T) {
	c, clk := newTestCache(t)
	ctx := context.Background()

	for _, month := range []string{"2025-01", "2025-02", "2025-03"} {
		if err := c.SaveMonthData(ctx, models.GenderFemale, models.PlatformX, month, sample); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.SaveMonthIndex(ctx, models.GenderFemale, models.PlatformX, []string{"2025-01", "2025-02", "2025-03"}); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveMetadata(ctx, models.IdolMetadata{Name: "A"}, models.GenderFemale); err != nil {
		t.Fatal(err)
	}

	s, _ := c.Stats(ctx)
	if s != (Stats{MonthData: 3, MonthIndex: 1, Metadata: 1}) || s.Total() != 5 {
		t.Fatalf("Stats() = %+v", s)
	}

	clk.Advance(25 * time.Hour)
	removed, err := c.CleanupExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 4 {
		t.Errorf("CleanupExpired() = %d, want 4", removed)
	}
	if s, _ := c.Stats(ctx); s != (Stats{Metadata: 1}) {
		t.Errorf("Stats() after cleanup = %+v", s)
	}
}

func TestCache_StartCleanup(t *testing.T) {
	c, clk := newTestCache(t)
	ctx := context.Background()

	if err := c.SaveMonthIndex(ctx, models.GenderMale, models.PlatformWeibo, []string{"2025-01"}); err != nil {
		t.Fatal(err)
	}
	clk.Advance(7 * time.Hour)

	select {
	case <-c.StartCleanup(ctx, 10*time.Millisecond):
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup did not finish")
	}
	if s, _ := c.Stats(ctx); s.MonthIndex != 0 {
		t.Errorf("Stats().MonthIndex = %d, want 0", s.MonthIndex)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	select {
	case <-c.StartCleanup(cancelled, time.Hour):
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled cleanup did not return")
	}
}

func TestCache_ClearAll(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.SaveMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02", sample)
	_ = c.SaveMonthIndex(ctx, models.GenderMale, models.PlatformWeibo, []string{"2025-02"})
	_ = c.SaveMetadata(ctx, models.IdolMetadata{Name: "A"}, models.GenderMale)

	if err := c.ClearAll(ctx); err != nil {
		t.Fatal(err)
	}
	if s, _ := c.Stats(ctx); s.Total() != 0 {
		t.Errorf("Stats() after ClearAll = %+v", s)
	}
}

func TestCache_SaveMetadataRequiresName(t *testing.T) {
	c, _ := newTestCache(t)
	if err := c.SaveMetadata(context.Background(), models.IdolMetadata{Group: "G"}, models.GenderMale); err == nil {
		t.Error("SaveMetadata() should reject a record without a name")
	}
}

func TestOpen_SchemaVersionGate(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := Open(ctx, testConfig(dir))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := c.SaveMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02", sample); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	// Same version: data survives a reopen.
	c, err = Open(ctx, testConfig(dir))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.GetMonthData(ctx, models.GenderMale, models.PlatformWeibo, "2025-02"); !ok {
		t.Error("data should persist across reopen")
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	// New version: everything is dropped.
	cfg := testConfig(dir)
	cfg.SchemaVersion = 2
	c, err = Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if s, _ := c.Stats(ctx); s.Total() != 0 {
		t.Errorf("Stats() after schema bump = %+v", s)
	}
}
