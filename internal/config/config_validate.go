// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/tomtom215/idolstats/internal/schedule"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateOrigin(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateWarmer(); err != nil {
		return err
	}

	if err := c.validateNotify(); err != nil {
		return err
	}

	if err := c.validateClient(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// sqlIdentifier matches table names that are safe to interpolate into DuckDB queries.
var sqlIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validateOrigin validates the origin data source configuration
func (c *Config) validateOrigin() error {
	if c.Origin.DataPath == "" {
		return fmt.Errorf("ORIGIN_DATA_PATH is required")
	}
	if !sqlIdentifier.MatchString(c.Origin.DataTable) {
		return fmt.Errorf("ORIGIN_DATA_TABLE must be a plain identifier, got %q", c.Origin.DataTable)
	}
	if !sqlIdentifier.MatchString(c.Origin.MetadataTable) {
		return fmt.Errorf("ORIGIN_METADATA_TABLE must be a plain identifier, got %q", c.Origin.MetadataTable)
	}
	if c.Origin.BreakerFailures == 0 {
		return fmt.Errorf("ORIGIN_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

// validateCache validates the server cache tier
func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "badger":
		if c.Cache.Path == "" {
			return fmt.Errorf("CACHE_PATH is required when CACHE_BACKEND=badger")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, badger")
	}

	if c.Cache.MonthIndexTTL <= 0 || c.Cache.MonthDataTTL <= 0 || c.Cache.MetadataTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Cache.MaxEntryBytes <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRY_BYTES must be positive")
	}
	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("CACHE_SWEEP_INTERVAL must not be negative")
	}
	return nil
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// validateWarmer validates the warmer and its schedule
func (c *Config) validateWarmer() error {
	if c.Warmer.Ceiling <= 0 {
		return fmt.Errorf("WARMER_CEILING must be positive")
	}
	if err := validateGenders(c.Warmer.Genders, "WARMER_GENDERS"); err != nil {
		return err
	}
	if len(c.Warmer.Platforms) == 0 {
		return fmt.Errorf("WARMER_PLATFORMS must list at least one platform")
	}

	seen := make(map[string]bool, len(c.Warmer.Jobs))
	for _, job := range c.Warmer.Jobs {
		if err := validateWarmJob(job); err != nil {
			return err
		}
		if seen[job.Name] {
			return fmt.Errorf("warmer job name %q is duplicated", job.Name)
		}
		seen[job.Name] = true
	}
	return nil
}

func validateWarmJob(job WarmJob) error {
	if job.Name == "" {
		return fmt.Errorf("warmer job name is required")
	}
	if _, err := schedule.For(job.At, job.Cron); err != nil {
		return fmt.Errorf("warmer job %s: %w", job.Name, err)
	}
	if len(job.Platforms) == 0 {
		return fmt.Errorf("warmer job %s: at least one platform is required", job.Name)
	}
	if err := validateGenders(job.Genders, "warmer job "+job.Name+" genders"); err != nil {
		return err
	}
	for _, y := range job.Years {
		if !yearPattern.MatchString(y) {
			return fmt.Errorf("warmer job %s: year %q must be four digits", job.Name, y)
		}
	}
	return nil
}

func validateGenders(genders []string, fieldName string) error {
	if len(genders) == 0 {
		return fmt.Errorf("%s must list at least one gender", fieldName)
	}
	for _, g := range genders {
		if g != "남자" && g != "여자" {
			return fmt.Errorf("%s must contain only 남자 or 여자, got %q", fieldName, g)
		}
	}
	return nil
}

// Location returns the scheduling time zone. When the tz database is not
// available the fixed GMT+9 offset is used, which matches Asia/Seoul.
func (w WarmerConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(w.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}

// validateNotify validates the e-mail notifier (only if configured)
func (c *Config) validateNotify() error {
	if c.Notify.ResendAPIKey == "" {
		return nil
	}
	if c.Notify.From == "" {
		return fmt.Errorf("NOTIFY_FROM is required when RESEND_API_KEY is set")
	}
	if len(c.Notify.To) == 0 {
		return fmt.Errorf("NOTIFY_TO is required when RESEND_API_KEY is set")
	}
	return nil
}

// validateClient validates the terminal client configuration
func (c *Config) validateClient() error {
	if err := validateHTTPURL(c.Client.APIURL, "IDOLSTATS_API_URL"); err != nil {
		return err
	}
	if c.Client.SchemaVersion < 1 {
		return fmt.Errorf("CLIENT_SCHEMA_VERSION must be at least 1")
	}
	if c.Client.MonthDataTTL <= 0 || c.Client.MonthIndexTTL <= 0 || c.Client.MetadataTTL <= 0 {
		return fmt.Errorf("client cache TTLs must be positive")
	}
	if c.Client.QuickLimit < 1 {
		return fmt.Errorf("CLIENT_QUICK_LIMIT must be at least 1")
	}
	if c.Client.FullLoadDelay < 0 || c.Client.MetadataSpacing < 0 || c.Client.PrefetchInterval < 0 {
		return fmt.Errorf("client loading delays must not be negative")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
