// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package ranking turns a working set of month records into the ranked
// table shown to users: per-idol current and base counts, month-over-month
// growth, search filtering and tie-aware ranks.
package ranking

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/idolstats/internal/models"
)

// NoGrowth is displayed when growth cannot be computed.
const NoGrowth = "-"

// Growth is the month-over-month change of one idol.
type Growth struct {
	// Percent is the change in percent. Zero when Display is NoGrowth.
	Percent float64
	// Display is the percent with two decimals, "-100", or NoGrowth.
	Display string
}

// Known reports whether growth could be computed.
func (g Growth) Known() bool {
	return g.Display != NoGrowth
}

// ComputeGrowth derives growth from the current and base counts. sameMonth
// is set when there is no earlier month to compare against.
func ComputeGrowth(current, base int64, sameMonth bool) Growth {
	switch {
	case sameMonth || base == 0:
		return Growth{Display: NoGrowth}
	case current == 0:
		return Growth{Percent: -100, Display: "-100"}
	default:
		pct := float64(current-base) / float64(base) * 100
		return Growth{Percent: pct, Display: strconv.FormatFloat(pct, 'f', 2, 64)}
	}
}

// Entry is one row of the ranked table.
type Entry struct {
	Rank    int
	Name    string
	Group   string
	Current int64
	Base    int64
	Growth  Growth
}

// BaseMonth returns the month before target in the ascending index, or
// target itself when it is the first month or not indexed.
func BaseMonth(target string, months []string) string {
	for i, m := range months {
		if m == target {
			if i > 0 {
				return months[i-1]
			}
			return target
		}
	}
	return target
}

// Rank builds the ranked table for target compared against base.
//
// Counts are aggregated per name in first-appearance order. Idols with no
// count in either month are dropped, as are idols that do not match search.
// The rest are sorted by current count, descending and stable. Equal
// current counts share a rank; otherwise the rank is the position plus one.
func Rank(records []models.MetricRecord, target, base, search string) []Entry {
	index := make(map[string]int)
	var entries []Entry
	for _, r := range records {
		i, ok := index[r.Name]
		if !ok {
			i = len(entries)
			index[r.Name] = i
			entries = append(entries, Entry{Name: r.Name, Group: r.Group})
		}
		if r.Date == target {
			entries[i].Current = r.Count
		}
		if r.Date == base {
			entries[i].Base = r.Count
		}
	}

	term := normalizeSearch(search)
	sameMonth := target == base
	ranked := entries[:0]
	for _, e := range entries {
		if e.Current <= 0 && e.Base <= 0 {
			continue
		}
		if term != "" && !strings.Contains(normalizeSearch(e.Name), term) && !strings.Contains(normalizeSearch(e.Group), term) {
			continue
		}
		e.Growth = ComputeGrowth(e.Current, e.Base, sameMonth)
		ranked = append(ranked, e)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Current > ranked[j].Current
	})

	for i := range ranked {
		if i > 0 && ranked[i].Current == ranked[i-1].Current {
			ranked[i].Rank = ranked[i-1].Rank
		} else {
			ranked[i].Rank = i + 1
		}
	}
	return ranked
}

// Matches reports whether an idol matches a search term, ignoring
// whitespace, case and Unicode composition.
func Matches(name, group, search string) bool {
	term := normalizeSearch(search)
	if term == "" {
		return true
	}
	return strings.Contains(normalizeSearch(name), term) || strings.Contains(normalizeSearch(group), term)
}

// normalizeSearch composes Hangul jamo (NFC), lowercases and removes all
// whitespace.
func normalizeSearch(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// magnitude returns the absolute growth as shown next to the arrow, with
// trailing zeros removed ("12.50" becomes "12.5").
func magnitude(g Growth) string {
	v, err := strconv.ParseFloat(g.Display, 64)
	if err != nil {
		return g.Display
	}
	return strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
}
