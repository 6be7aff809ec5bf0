// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package main

import (
	"bytes"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/idolstats/internal/api"
	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/clientcache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/origin"
	"github.com/tomtom215/idolstats/internal/servercache"
)

// lockedBuffer collects log output written from background goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func originFixture() *origin.MemorySource {
	src := origin.NewMemorySource([]models.RawRow{
		{Name: "A", Group: "G", Gender: models.GenderMale, Platform: models.PlatformWeibo, Date: "2025.01", Count: "100"},
		{Name: "A", Group: "G", Gender: models.GenderMale, Platform: models.PlatformWeibo, Date: "2025.02", Count: "200"},
		{Name: "B", Group: "G", Gender: models.GenderMale, Platform: models.PlatformWeibo, Date: "2025.02", Count: "1,500"},
		{Name: "C", Group: "H", Gender: models.GenderFemale, Platform: models.PlatformYouTube, Date: "2025.02", Count: "7"},
	})
	src.SetMetadata(models.GenderFemale, origin.MetadataTable{
		Headers: []string{"name", "group", "gender", "youtube_link", "fandom"},
		Rows:    [][]string{{"C", "H", models.GenderFemale, "https://yt.example/c", "Cubes"}},
	})
	return src
}

// newEndpoint serves the read API over an in-memory origin.
func newEndpoint(t *testing.T) string {
	t.Helper()
	sc := servercache.New(cache.NewMemoryBackend(), originFixture(), config.CacheConfig{
		MonthIndexTTL: 6 * time.Hour,
		MonthDataTTL:  24 * time.Hour,
		MetadataTTL:   6 * time.Hour,
		MaxEntryBytes: 100000,
	})
	mw := api.DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(sc, nil), mw).SetupChi())
	t.Cleanup(srv.Close)
	return srv.URL
}

// runCmd executes the command tree against url with a fresh cache
// directory per test and returns captured stdout.
func runCmd(t *testing.T, url, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.ConfigPathEnvVar, "/non/existent/config.yaml")

	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&lockedBuffer{})
	root.SetArgs(append([]string{"--api-url", url, "--cache-dir", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "http://localhost:0", t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "idolctl ") {
		t.Errorf("version output = %q", out)
	}
}

func TestShow(t *testing.T) {
	url := newEndpoint(t)
	dir := t.TempDir()

	out, err := runCmd(t, url, dir, "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"남자 · 웨이보 · 25년2월", "1,500", "A", "B"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	t.Run("persisted to local cache", func(t *testing.T) {
		out, err := runCmd(t, url, dir, "cache", "stats", "--json")
		if err != nil {
			t.Fatalf("cache stats: %v", err)
		}
		var stats clientcache.Stats
		if err := json.Unmarshal([]byte(out), &stats); err != nil {
			t.Fatalf("decode stats %q: %v", out, err)
		}
		if stats.MonthIndex < 1 || stats.MonthData < 2 {
			t.Errorf("stats = %+v, want the index and both months", stats)
		}
	})

	t.Run("served from local cache", func(t *testing.T) {
		out, err := runCmd(t, url, dir, "show", "--json")
		if err != nil {
			t.Fatalf("show --json: %v", err)
		}
		var got showOutput
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if got.Month != "2025-02" || got.BaseMonth != "2025-01" {
			t.Errorf("month/base = %s/%s", got.Month, got.BaseMonth)
		}
		if len(got.Entries) != 2 || got.Entries[0].Name != "B" || !got.Entries[1].Growth.Known() {
			t.Errorf("entries = %+v", got.Entries)
		}
	})
}

func TestShow_Month(t *testing.T) {
	url := newEndpoint(t)

	out, err := runCmd(t, url, t.TempDir(), "show", "--month", "2025-01", "--json")
	if err != nil {
		t.Fatalf("show --month: %v", err)
	}
	var got showOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Month != "2025-01" || got.BaseMonth != "2025-01" {
		t.Errorf("month/base = %s/%s, want the first month compared with itself", got.Month, got.BaseMonth)
	}
	if len(got.Entries) != 1 || got.Entries[0].Name != "A" {
		t.Errorf("entries = %+v", got.Entries)
	}

	if _, err := runCmd(t, url, t.TempDir(), "show", "--month", "2024-12"); err == nil || !strings.Contains(err.Error(), "not available") {
		t.Errorf("unknown month error = %v", err)
	}
}

func TestShow_Search(t *testing.T) {
	url := newEndpoint(t)

	out, err := runCmd(t, url, t.TempDir(), "show", "--search", "b", "--json")
	if err != nil {
		t.Fatalf("show --search: %v", err)
	}
	var got showOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Name != "B" {
		t.Errorf("entries = %+v, want only B", got.Entries)
	}
}

func TestShow_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"gender", []string{"show", "--gender", "male"}, "--gender"},
		{"platform", []string{"show", "--sns", "tiktok"}, "--sns"},
		{"detail without name", []string{"detail"}, "arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, "http://localhost:0", t.TempDir(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestDetail(t *testing.T) {
	url := newEndpoint(t)

	out, err := runCmd(t, url, t.TempDir(), "detail", "C", "--gender", models.GenderFemale)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	for _, want := range []string{"https://yt.example/c", "fandom", "Cubes"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail output missing %q:\n%s", want, out)
		}
	}

	if _, err := runCmd(t, url, t.TempDir(), "detail", "Nobody", "--gender", models.GenderFemale); err == nil {
		t.Error("detail of an unknown idol should fail")
	}
}

func TestCacheCommands(t *testing.T) {
	url := newEndpoint(t)
	dir := t.TempDir()

	if _, err := runCmd(t, url, dir, "show"); err != nil {
		t.Fatalf("show: %v", err)
	}

	out, err := runCmd(t, url, dir, "cache", "cleanup")
	if err != nil {
		t.Fatalf("cache cleanup: %v", err)
	}
	if !strings.Contains(out, "Removed 0 expired entries") {
		t.Errorf("cleanup output = %q", out)
	}

	if _, err := runCmd(t, url, dir, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	out, err = runCmd(t, url, dir, "cache", "stats", "--json")
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	var stats clientcache.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats %q: %v", out, err)
	}
	if stats.Total() != 0 {
		t.Errorf("stats after clear = %+v", stats)
	}
}

func useMemoryOrigin(t *testing.T) *origin.MemorySource {
	t.Helper()
	src := originFixture()
	prev := openOrigin
	openOrigin = func(config.OriginConfig) (origin.Source, io.Closer) {
		return src, io.NopCloser(nil)
	}
	t.Cleanup(func() { openOrigin = prev })
	return src
}

func TestWarm_MemoryBackend(t *testing.T) {
	useMemoryOrigin(t)

	out, err := runCmd(t, "http://localhost:0", t.TempDir(), "warm", "--sns", models.PlatformWeibo, "--gender", models.GenderMale)
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	for _, want := range []string{"items cached", "남자/웨이보", "nothing was persisted"} {
		if !strings.Contains(out, want) {
			t.Errorf("warm output missing %q:\n%s", want, out)
		}
	}
}

func TestWarm_BadgerBackend(t *testing.T) {
	src := useMemoryOrigin(t)
	t.Setenv("CACHE_BACKEND", "badger")
	t.Setenv("CACHE_PATH", t.TempDir())

	out, err := runCmd(t, "http://localhost:0", t.TempDir(), "warm", "--gender", models.GenderMale, "--year", "2025", "--json")
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	var got warmOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !got.Persisted || got.Backend != "badger" {
		t.Errorf("backend = %s persisted = %v", got.Backend, got.Persisted)
	}
	if got.Summary.ItemsCached == 0 || len(got.Summary.Completed) != 7 {
		t.Errorf("summary = %+v, want every male platform completed", got.Summary)
	}
	if src.Scans() != 1 {
		t.Errorf("origin scans = %d, want 1", src.Scans())
	}
}

func TestValidateWarmScope(t *testing.T) {
	tests := []struct {
		name      string
		platforms []string
		genders   []string
		year      string
		wantErr   bool
	}{
		{"defaults", models.Platforms(), models.Genders(), "", false},
		{"year", []string{models.PlatformX}, []string{models.GenderFemale}, "2024", false},
		{"unknown platform", []string{"tiktok"}, models.Genders(), "", true},
		{"unknown gender", models.Platforms(), []string{"male"}, "", true},
		{"short year", models.Platforms(), models.Genders(), "24", true},
		{"non-numeric year", models.Platforms(), models.Genders(), "20x4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWarmScope(tt.platforms, tt.genders, tt.year)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateWarmScope() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
