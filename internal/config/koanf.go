// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/idolstats/config.yaml",
	"/etc/idolstats/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// Warm jobs are not part of the defaults: koanf merges slices of structs
// poorly, so they are filled in after unmarshaling when none are configured.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Origin: OriginConfig{
			DataPath:           "/data/sns_data.csv",
			DataTable:          "sns_data",
			FemaleMetadataPath: "/data/girlband_metadata.csv",
			MaleMetadataPath:   "/data/boyband_metadata.csv",
			MetadataTable:      "metadata",
			BreakerFailures:    5,
			BreakerTimeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:       "memory",
			Path:          "/data/cache",
			MonthIndexTTL: 6 * time.Hour,
			MonthDataTTL:  24 * time.Hour,
			MetadataTTL:   6 * time.Hour,
			MaxEntryBytes: 100000,
			SweepInterval: 15 * time.Minute,
		},
		Warmer: WarmerConfig{
			Enabled:    true,
			Ceiling:    5 * time.Minute,
			Timezone:   "Asia/Seoul",
			RunOnStart: false,
			Platforms:  []string{"웨이보", "차오화", "X(트위터)", "유튜브", "QQ뮤직", "스포티파이", "빌리빌리"},
			Genders:    []string{"남자", "여자"},
		},
		Notify: NotifyConfig{
			From: "Idolstats <alerts@idolstats.local>",
		},
		Client: ClientConfig{
			APIURL:           "http://localhost:8080",
			RequestTimeout:   30 * time.Second,
			CacheDir:         defaultClientCacheDir(),
			SchemaVersion:    1,
			MonthDataTTL:     24 * time.Hour,
			MonthIndexTTL:    6 * time.Hour,
			MetadataTTL:      7 * 24 * time.Hour,
			CleanupDelay:     10 * time.Second,
			QuickLimit:       10,
			FullLoadDelay:    100 * time.Millisecond,
			MetadataSpacing:  time.Second,
			PrefetchInterval: 500 * time.Millisecond,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

func defaultClientCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/idolstats"
	}
	return ".idolstats-cache"
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if len(cfg.Warmer.Jobs) == 0 {
		cfg.Warmer.Jobs = DefaultWarmJobs()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"warmer.platforms",
	"warmer.genders",
	"notify.to",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars always arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Variables not listed here are ignored so that unrelated environment
// entries cannot leak into the configuration.
var envMappings = map[string]string{
	// Server
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",

	// Origin
	"origin_data_path":            "origin.data_path",
	"origin_data_table":           "origin.data_table",
	"origin_female_metadata_path": "origin.female_metadata_path",
	"origin_male_metadata_path":   "origin.male_metadata_path",
	"origin_metadata_table":       "origin.metadata_table",
	"origin_breaker_failures":     "origin.breaker_failures",
	"origin_breaker_timeout":      "origin.breaker_timeout",

	// Server cache
	"cache_backend":         "cache.backend",
	"cache_path":            "cache.path",
	"cache_month_index_ttl": "cache.month_index_ttl",
	"cache_month_data_ttl":  "cache.month_data_ttl",
	"cache_metadata_ttl":    "cache.metadata_ttl",
	"cache_max_entry_bytes": "cache.max_entry_bytes",
	"cache_sweep_interval":  "cache.sweep_interval",

	// Warmer
	"warmer_enabled":      "warmer.enabled",
	"warmer_ceiling":      "warmer.ceiling",
	"warmer_timezone":     "warmer.timezone",
	"warmer_run_on_start": "warmer.run_on_start",
	"warmer_platforms":    "warmer.platforms",
	"warmer_genders":      "warmer.genders",

	// Notifications
	"resend_api_key": "notify.resend_api_key",
	"notify_from":    "notify.from",
	"notify_to":      "notify.to",

	// Client
	"idolstats_api_url":        "client.api_url",
	"client_request_timeout":   "client.request_timeout",
	"client_cache_dir":         "client.cache_dir",
	"client_schema_version":    "client.schema_version",
	"client_month_data_ttl":    "client.month_data_ttl",
	"client_month_index_ttl":   "client.month_index_ttl",
	"client_metadata_ttl":      "client.metadata_ttl",
	"client_cleanup_delay":     "client.cleanup_delay",
	"client_quick_limit":       "client.quick_limit",
	"client_full_load_delay":   "client.full_load_delay",
	"client_metadata_spacing":  "client.metadata_spacing",
	"client_prefetch_interval": "client.prefetch_interval",
	"client_save_data":         "client.save_data",

	// Security
	"cors_origins":       "security.cors_origins",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - CACHE_BACKEND -> cache.backend
//   - RESEND_API_KEY -> notify.resend_api_key
//   - IDOLSTATS_API_URL -> client.api_url
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
