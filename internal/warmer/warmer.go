// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package warmer pre-populates the server cache in batch.
//
// A warm run reads the origin once, filters it in memory and writes month
// data (and, unless scoped to a year, the month index) for each requested
// (gender, platform) unit. Units run in gender-major order under a
// wall-clock ceiling: once the ceiling is reached the remaining work is
// skipped, not failed, and the Summary lists what was left out. The next
// scheduled run picks it up.
//
// A unit error stops the run immediately. Job.Run adds operator
// notification on top of Warm, and Scheduler runs jobs daily.
package warmer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/origin"
)

// DefaultCeiling is the wall-clock budget of one warm run.
const DefaultCeiling = 5 * time.Minute

// Writer is the part of the server cache the warmer writes to.
type Writer interface {
	PutMonthIndex(ctx context.Context, gender, platform string, months []string) error
	PutMonthData(ctx context.Context, gender, platform, month string, records []models.MetricRecord) error
}

// Request scopes a warm run.
type Request struct {
	Platforms []string
	Genders   []string
	// Year restricts month data to months starting with it. The month index
	// is not written for year-scoped runs.
	Year string
}

// Unit is one (gender, platform) pair.
type Unit struct {
	Gender   string `json:"gender"`
	Platform string `json:"platform"`
}

func (u Unit) String() string {
	return u.Gender + "/" + u.Platform
}

// Summary reports a warm run.
type Summary struct {
	RunID            string        `json:"run_id"`
	ItemsCached      int           `json:"items_cached"`
	RecordsProcessed int           `json:"records_processed"`
	OversizeSkipped  int           `json:"oversize_skipped"`
	Elapsed          time.Duration `json:"elapsed"`
	ScanTime         time.Duration `json:"scan_time"`
	Completed        []Unit        `json:"completed"`
	Skipped          []Unit        `json:"skipped,omitempty"`
}

// ScanFraction is the share of the run spent reading the origin.
func (s Summary) ScanFraction() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.ScanTime) / float64(s.Elapsed)
}

// Truncated reports whether the ceiling cut the run short.
func (s Summary) Truncated() bool {
	return len(s.Skipped) > 0
}

// Warmer runs warm requests against one origin and one cache.
type Warmer struct {
	src     origin.Source
	dst     Writer
	ceiling time.Duration
	now     func() time.Time
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Warmer) { w.now = now }
}

// New creates a warmer. A non-positive ceiling uses DefaultCeiling.
func New(src origin.Source, dst Writer, ceiling time.Duration, opts ...Option) *Warmer {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	w := &Warmer{
		src:     src,
		dst:     dst,
		ceiling: ceiling,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Warm runs one warm request. On a unit error the partial Summary is
// returned with the error.
func (w *Warmer) Warm(ctx context.Context, req Request) (Summary, error) {
	start := w.now()
	summary := Summary{RunID: uuid.NewString()}
	log := logging.Ctx(ctx).With().Str("component", "warmer").Str("run_id", summary.RunID).Str("year", req.Year).Logger()

	rows, err := w.src.Rows(ctx)
	summary.ScanTime = w.now().Sub(start)
	if err != nil {
		summary.Elapsed = summary.ScanTime
		return summary, fmt.Errorf("warm: read origin: %w", err)
	}
	log.Info().Int("rows", len(rows)).Dur("scan_time", summary.ScanTime).Msg("Origin scanned")

	units := expand(req)
	grouped := groupRows(rows, units)
	memo := origin.NewMonthMemo()

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = w.now().Sub(start)
			return summary, err
		}
		if w.now().Sub(start) >= w.ceiling {
			summary.Skipped = append(summary.Skipped, units[i:]...)
			log.Warn().Stringer("at", unit).Int("skipped_units", len(units)-i).Msg("Ceiling reached, skipping remaining units")
			break
		}

		complete, err := w.warmUnit(ctx, unit, grouped[unit], req.Year, memo, start, &summary, log)
		if err != nil {
			summary.Elapsed = w.now().Sub(start)
			log.Error().Err(err).Stringer("unit", unit).Msg("Warm unit failed, aborting run")
			return summary, err
		}
		if !complete {
			summary.Skipped = append(summary.Skipped, units[i:]...)
			break
		}
		summary.Completed = append(summary.Completed, unit)
	}

	summary.Elapsed = w.now().Sub(start)
	log.Info().
		Int("items_cached", summary.ItemsCached).
		Int("records_processed", summary.RecordsProcessed).
		Int("oversize_skipped", summary.OversizeSkipped).
		Int("units_completed", len(summary.Completed)).
		Int("units_skipped", len(summary.Skipped)).
		Dur("elapsed", summary.Elapsed).
		Float64("scan_fraction", summary.ScanFraction()).
		Msg("Warm run finished")
	return summary, nil
}

// warmUnit writes one unit. It returns false when the ceiling was reached
// part way through.
func (w *Warmer) warmUnit(ctx context.Context, unit Unit, rows []models.RawRow, year string,
	memo *origin.MonthMemo, start time.Time, summary *Summary, log zerolog.Logger) (bool, error) {
	unitStart := w.now()

	buckets := make(map[string][]models.MetricRecord)
	for i := range rows {
		r := &rows[i]
		month := memo.Normalize(r.Date)
		if !origin.IsMonth(month) {
			continue
		}
		buckets[month] = append(buckets[month], models.MetricRecord{
			Name:  r.Name,
			Group: r.Group,
			Date:  month,
			Count: origin.ParseCount(r.Count),
		})
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)

	if len(months) == 0 {
		log.Info().Stringer("unit", unit).Msg("No data for unit")
		return true, nil
	}

	for _, month := range months {
		if year != "" && !strings.HasPrefix(month, year) {
			continue
		}
		if w.now().Sub(start) >= w.ceiling {
			log.Warn().Stringer("unit", unit).Str("month", month).Msg("Ceiling reached inside unit")
			return false, nil
		}

		records := buckets[month]
		summary.RecordsProcessed += len(records)
		if err := w.dst.PutMonthData(ctx, unit.Gender, unit.Platform, month, records); err != nil {
			if errors.Is(err, cache.ErrTooLarge) {
				summary.OversizeSkipped++
				log.Warn().Err(err).Stringer("unit", unit).Str("month", month).Msg("Month over size ceiling, skipped")
				continue
			}
			return false, fmt.Errorf("warm %s %s: %w", unit, month, err)
		}
		summary.ItemsCached++
	}

	if year == "" {
		if err := w.dst.PutMonthIndex(ctx, unit.Gender, unit.Platform, months); err != nil {
			return false, fmt.Errorf("warm %s month index: %w", unit, err)
		}
		summary.ItemsCached++
	}

	log.Info().
		Stringer("unit", unit).
		Int("months", len(months)).
		Dur("elapsed", w.now().Sub(unitStart)).
		Msg("Unit warmed")
	return true, nil
}

// expand lists the units of a request in gender-major order.
func expand(req Request) []Unit {
	units := make([]Unit, 0, len(req.Genders)*len(req.Platforms))
	for _, g := range req.Genders {
		for _, p := range req.Platforms {
			units = append(units, Unit{Gender: g, Platform: p})
		}
	}
	return units
}

// groupRows buckets rows by unit, dropping rows no unit asked for.
func groupRows(rows []models.RawRow, units []Unit) map[Unit][]models.RawRow {
	grouped := make(map[Unit][]models.RawRow, len(units))
	for _, u := range units {
		grouped[u] = nil
	}
	for _, r := range rows {
		u := Unit{Gender: r.Gender, Platform: r.Platform}
		if _, ok := grouped[u]; ok {
			grouped[u] = append(grouped[u], r)
		}
	}
	return grouped
}
