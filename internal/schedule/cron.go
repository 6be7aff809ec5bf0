// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package schedule parses the wall-clock schedules of warm jobs.
//
// A job runs either daily at an "HH:MM" time or on a standard five-field
// cron expression (minute hour day-of-month month day-of-week). Both are
// evaluated in the warmer's time zone.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expression is a parsed cron expression. Each field is a bitset of the
// values it allows.
type Expression struct {
	minutes  uint64 // 0-59
	hours    uint64 // 0-23
	days     uint64 // 1-31
	months   uint64 // 1-12
	weekdays uint64 // 0-6, 0 = Sunday

	anyDay     bool
	anyWeekday bool
}

// Parse parses a five-field cron expression.
//
// Supported syntax per field:
//   - * (any value)
//   - n (specific value)
//   - n-m (range)
//   - n,m,o (list)
//   - */n and n-m/s (steps)
//
// Examples:
//   - "0 3 * * *": daily at 03:00
//   - "30 3 * * 1": Mondays at 03:30
func Parse(expr string) (*Expression, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}

	e := &Expression{
		anyDay:     fields[2] == "*",
		anyWeekday: fields[4] == "*",
	}
	specs := []struct {
		name     string
		min, max int
		dst      *uint64
	}{
		{"minute", 0, 59, &e.minutes},
		{"hour", 0, 23, &e.hours},
		{"day-of-month", 1, 31, &e.days},
		{"month", 1, 12, &e.months},
		{"day-of-week", 0, 7, &e.weekdays},
	}

	for i, spec := range specs {
		bits, err := parseField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dst = bits
	}

	// 7 is an alias for Sunday.
	if e.weekdays&(1<<7) != 0 {
		e.weekdays = e.weekdays&^(1<<7) | 1
	}
	return e, nil
}

// Daily returns the expression for a daily run at hour:minute.
func Daily(hour, minute int) *Expression {
	return &Expression{
		minutes:    1 << uint(minute),
		hours:      1 << uint(hour),
		days:       span(1, 31),
		months:     span(1, 12),
		weekdays:   span(0, 6),
		anyDay:     true,
		anyWeekday: true,
	}
}

// Next returns the first matching minute strictly after the given time,
// evaluated in loc (UTC when nil). It returns the zero time when nothing
// matches within four years, which only happens for impossible dates such
// as February 30th.
func (e *Expression) Next(after time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := after.In(loc).Truncate(time.Minute).Add(time.Minute)
	limit := t.AddDate(4, 0, 0)

	for t.Before(limit) {
		if !has(e.months, int(t.Month())) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
			continue
		}
		if !e.dayMatches(t) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
			continue
		}
		if !has(e.hours, t.Hour()) {
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc)
			continue
		}
		if !has(e.minutes, t.Minute()) {
			t = t.Add(time.Minute)
			continue
		}
		return t
	}
	return time.Time{}
}

// dayMatches applies the cron rule that day-of-month and day-of-week are
// OR'd when both are restricted.
func (e *Expression) dayMatches(t time.Time) bool {
	dom := has(e.days, t.Day())
	dow := has(e.weekdays, int(t.Weekday()))
	switch {
	case e.anyDay && e.anyWeekday:
		return true
	case e.anyDay:
		return dow
	case e.anyWeekday:
		return dom
	default:
		return dom || dow
	}
}

// For returns the expression of a job: cron when set, otherwise the daily
// HH:MM time.
func For(at, cron string) (*Expression, error) {
	if strings.TrimSpace(cron) != "" {
		return Parse(cron)
	}
	t, err := time.Parse("15:04", strings.TrimSpace(at))
	if err != nil {
		return nil, fmt.Errorf("time %q must be HH:MM", at)
	}
	return Daily(t.Hour(), t.Minute()), nil
}

func parseField(field string, lo, hi int) (uint64, error) {
	var bits uint64
	for _, part := range strings.Split(field, ",") {
		b, err := parsePart(part, lo, hi)
		if err != nil {
			return 0, err
		}
		bits |= b
	}
	return bits, nil
}

func parsePart(part string, lo, hi int) (uint64, error) {
	rangePart, stepPart, hasStep := strings.Cut(part, "/")
	step := 1
	if hasStep {
		n, err := strconv.Atoi(stepPart)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid step value: %s", stepPart)
		}
		step = n
	}

	start, end := lo, hi
	switch {
	case rangePart == "*":
	case strings.Contains(rangePart, "-"):
		a, b, _ := strings.Cut(rangePart, "-")
		var err error
		if start, err = strconv.Atoi(a); err != nil {
			return 0, fmt.Errorf("invalid range start: %s", a)
		}
		if end, err = strconv.Atoi(b); err != nil {
			return 0, fmt.Errorf("invalid range end: %s", b)
		}
	default:
		v, err := strconv.Atoi(rangePart)
		if err != nil {
			return 0, fmt.Errorf("invalid value: %s", rangePart)
		}
		start = v
		if !hasStep {
			end = v
		}
	}

	if start > end || start < lo || end > hi {
		return 0, fmt.Errorf("value out of range: %s (allowed %d-%d)", part, lo, hi)
	}

	var bits uint64
	for v := start; v <= end; v += step {
		bits |= 1 << uint(v)
	}
	return bits, nil
}

func span(lo, hi int) uint64 {
	var bits uint64
	for v := lo; v <= hi; v++ {
		bits |= 1 << uint(v)
	}
	return bits
}

func has(bits uint64, v int) bool {
	return bits&(1<<uint(v)) != 0
}
