// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package config loads Idolstats configuration with Koanf v2.
//
// Sources are layered, highest priority last:
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/idolstats/config.yaml)
//  3. Environment variables mapped through envTransformFunc
//
// The same Config drives the server binary and the terminal client; each
// binary reads only the sections it needs.
package config

import "time"

// Config holds all application configuration.
//
// Sections:
//   - Server: HTTP listener for the read endpoint
//   - Origin: the tabular data source and idol metadata tables
//   - Cache: the server-side TTL cache tier
//   - Warmer: batch cache population and its daily schedule
//   - Notify: operator notifications for failed warm runs
//   - Client: the terminal client, its persistent cache and loading policy
//   - Security: CORS and rate limiting for the read endpoint
//   - Logging: level and format
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Origin   OriginConfig   `koanf:"origin"`
	Cache    CacheConfig    `koanf:"cache"`
	Warmer   WarmerConfig   `koanf:"warmer"`
	Notify   NotifyConfig   `koanf:"notify"`
	Client   ClientConfig   `koanf:"client"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// OriginConfig describes where the raw rows live.
//
// DataPath may point at a CSV export of the spreadsheet (read with DuckDB's
// read_csv_auto) or at a DuckDB database file holding DataTable. Metadata is
// split per gender bucket, mirroring the girl group and boy group sheets.
type OriginConfig struct {
	DataPath           string `koanf:"data_path"`
	DataTable          string `koanf:"data_table"`
	FemaleMetadataPath string `koanf:"female_metadata_path"`
	MaleMetadataPath   string `koanf:"male_metadata_path"`
	MetadataTable      string `koanf:"metadata_table"`

	// Circuit breaker around origin reads. The breaker never retries; it only
	// fails fast while the origin is known to be down.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig holds server cache tier settings.
type CacheConfig struct {
	// Backend is memory or badger.
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`

	MonthIndexTTL time.Duration `koanf:"month_index_ttl"`
	MonthDataTTL  time.Duration `koanf:"month_data_ttl"`
	MetadataTTL   time.Duration `koanf:"metadata_ttl"`

	// MaxEntryBytes is the per-entry payload ceiling. Payloads at or above it
	// are served but not stored.
	MaxEntryBytes int `koanf:"max_entry_bytes"`

	// SweepInterval controls the background reclamation of expired entries.
	// Zero disables it; expiry is still enforced on read.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// WarmerConfig holds cache warmer settings.
type WarmerConfig struct {
	Enabled bool `koanf:"enabled"`

	// Ceiling is the wall-clock budget of one warm invocation.
	Ceiling time.Duration `koanf:"ceiling"`

	// Timezone is used for scheduling. Falls back to a fixed GMT+9 zone when
	// the tz database is unavailable.
	Timezone string `koanf:"timezone"`

	RunOnStart bool     `koanf:"run_on_start"`
	Platforms  []string `koanf:"platforms"`
	Genders    []string `koanf:"genders"`

	// Jobs is the daily schedule. Empty means DefaultWarmJobs.
	Jobs []WarmJob `koanf:"jobs"`
}

// WarmJob is one daily scheduled warm invocation.
type WarmJob struct {
	Name      string   `koanf:"name"`
	At        string   `koanf:"at"`   // HH:MM in WarmerConfig.Timezone
	Cron      string   `koanf:"cron"` // five-field cron expression, overrides At
	Platforms []string `koanf:"platforms"`
	Genders   []string `koanf:"genders"`
	Years     []string `koanf:"years"`
}

// NotifyConfig holds operator notification settings.
// Notifications are e-mailed through Resend when an API key is set and
// logged otherwise.
type NotifyConfig struct {
	ResendAPIKey string   `koanf:"resend_api_key"`
	From         string   `koanf:"from"`
	To           []string `koanf:"to"`
}

// ClientConfig holds terminal client settings.
type ClientConfig struct {
	APIURL         string        `koanf:"api_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	CacheDir       string        `koanf:"cache_dir"`
	SchemaVersion  int           `koanf:"schema_version"`

	MonthDataTTL  time.Duration `koanf:"month_data_ttl"`
	MonthIndexTTL time.Duration `koanf:"month_index_ttl"`
	MetadataTTL   time.Duration `koanf:"metadata_ttl"`

	// CleanupDelay postpones the first expired-entry sweep so it does not
	// compete with the initial load.
	CleanupDelay time.Duration `koanf:"cleanup_delay"`

	QuickLimit       int           `koanf:"quick_limit"`
	FullLoadDelay    time.Duration `koanf:"full_load_delay"`
	MetadataSpacing  time.Duration `koanf:"metadata_spacing"`
	PrefetchInterval time.Duration `koanf:"prefetch_interval"`
	SaveData         bool          `koanf:"save_data"`
}

// SecurityConfig holds read endpoint protections.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes file and line in each event.
	Caller bool `koanf:"caller"`
}

// DefaultWarmJobs mirrors the production trigger table: one job per
// (platform, gender) starting 03:00, with the high-volume platforms split by
// year so that each job stays under the warm ceiling.
func DefaultWarmJobs() []WarmJob {
	const male, female = "남자", "여자"
	job := func(name, at, platform, gender string, years ...string) WarmJob {
		return WarmJob{Name: name, At: at, Platforms: []string{platform}, Genders: []string{gender}, Years: years}
	}
	return []WarmJob{
		job("weibo-male", "03:00", "웨이보", male),
		job("weibo-female", "03:05", "웨이보", female),
		job("chaohua-male", "03:10", "차오화", male),
		job("chaohua-female", "03:15", "차오화", female),
		job("x-male", "03:20", "X(트위터)", male),
		job("x-female", "03:25", "X(트위터)", female),
		job("youtube-male-2024", "03:30", "유튜브", male, "2024"),
		job("youtube-male-2025-2026", "03:32", "유튜브", male, "2025", "2026"),
		job("youtube-female-2024", "03:36", "유튜브", female, "2024"),
		job("youtube-female-2025-2026", "03:38", "유튜브", female, "2025", "2026"),
		job("qqmusic-male", "03:42", "QQ뮤직", male),
		job("qqmusic-female", "03:45", "QQ뮤직", female),
		job("spotify-male-2024", "03:50", "스포티파이", male, "2024"),
		job("spotify-male-2025-2026", "03:52", "스포티파이", male, "2025", "2026"),
		job("spotify-female", "03:56", "스포티파이", female),
		job("bilibili-male", "04:02", "빌리빌리", male),
		job("bilibili-female", "04:05", "빌리빌리", female),
	}
}
