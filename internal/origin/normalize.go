// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package origin

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// sheetZone is the zone the origin spreadsheet formats dates in.
var sheetZone = time.FixedZone("GMT+9", 9*60*60)

var (
	yearMonthPrefix = regexp.MustCompile(`(\d{4})[./-](\d{1,2})`)
	monthPattern    = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// NormalizeMonth converts an origin date cell to YYYY-MM. The result is not
// guaranteed to be a valid month; use IsMonth to check.
func NormalizeMonth(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return d.In(sheetZone).Format("2006-01")
	case *time.Time:
		if d == nil {
			return ""
		}
		return d.In(sheetZone).Format("2006-01")
	case string:
		return normalizeMonthString(d)
	case []byte:
		return normalizeMonthString(string(d))
	default:
		return normalizeMonthString(fmt.Sprint(d))
	}
}

func normalizeMonthString(s string) string {
	if m := yearMonthPrefix.FindStringSubmatch(s); m != nil {
		month := m[2]
		if len(month) == 1 {
			month = "0" + month
		}
		return m[1] + "-" + month
	}
	if r := []rune(s); len(r) >= 7 {
		return string(r[:7])
	}
	return s
}

// IsMonth reports whether s has the YYYY-MM shape.
func IsMonth(s string) bool {
	return monthPattern.MatchString(s)
}

// ParseCount converts an origin count cell to a non-negative integer.
// Empty, non-numeric and non-finite values are 0; fractions are truncated.
func ParseCount(v any) int64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case string:
		f = parseCountString(n)
	case []byte:
		f = parseCountString(string(n))
	default:
		f = parseCountString(fmt.Sprint(n))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

func parseCountString(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// MonthMemo caches NormalizeMonth results for string cells. A scan sees the
// same few date strings thousands of times. Not safe for concurrent use.
type MonthMemo struct {
	seen map[string]string
}

// NewMonthMemo returns an empty memo.
func NewMonthMemo() *MonthMemo {
	return &MonthMemo{seen: make(map[string]string)}
}

// Normalize is NormalizeMonth with memoization of string inputs.
func (m *MonthMemo) Normalize(v any) string {
	s, ok := v.(string)
	if !ok {
		return NormalizeMonth(v)
	}
	if month, ok := m.seen[s]; ok {
		return month
	}
	month := normalizeMonthString(s)
	m.seen[s] = month
	return month
}

// Len returns the number of memoized inputs.
func (m *MonthMemo) Len() int {
	return len(m.seen)
}
