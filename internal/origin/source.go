// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package origin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/idolstats/internal/models"
)

var (
	// ErrSourceUnavailable is returned when the origin table or file cannot
	// be read, including when the circuit breaker is open.
	ErrSourceUnavailable = errors.New("origin unavailable")

	// ErrNotFound is returned when a metadata lookup matches no row.
	ErrNotFound = errors.New("not found")
)

// Source is the origin data contract.
type Source interface {
	// Rows returns every data row. Rows are returned in origin order.
	Rows(ctx context.Context) ([]models.RawRow, error)

	// Metadata returns the metadata table for a gender.
	Metadata(ctx context.Context, gender string) (MetadataTable, error)
}

// MetadataTable is a header row plus data rows. Rows may be shorter than
// the header.
type MetadataTable struct {
	Headers []string
	Rows    [][]string
}

// MonthIndex returns the ascending, duplicate-free months present for
// (gender, platform). Values that do not normalize to YYYY-MM are dropped.
func MonthIndex(rows []models.RawRow, gender, platform string, memo *MonthMemo) []string {
	if memo == nil {
		memo = NewMonthMemo()
	}
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for i := range rows {
		r := &rows[i]
		if r.Gender != gender || r.Platform != platform {
			continue
		}
		month := memo.Normalize(r.Date)
		if !IsMonth(month) {
			continue
		}
		if _, dup := seen[month]; dup {
			continue
		}
		seen[month] = struct{}{}
		months = append(months, month)
	}
	sort.Strings(months)
	return months
}

// MonthRecords returns the records for exactly (gender, platform, month),
// in origin order.
func MonthRecords(rows []models.RawRow, gender, platform, month string, memo *MonthMemo) []models.MetricRecord {
	if memo == nil {
		memo = NewMonthMemo()
	}
	records := make([]models.MetricRecord, 0)
	for i := range rows {
		r := &rows[i]
		if r.Gender != gender || r.Platform != platform {
			continue
		}
		if memo.Normalize(r.Date) != month {
			continue
		}
		records = append(records, models.MetricRecord{
			Name:  r.Name,
			Group: r.Group,
			Date:  month,
			Count: ParseCount(r.Count),
		})
	}
	return records
}

// FindMetadata returns the row whose trimmed name and gender match.
func FindMetadata(table MetadataTable, name, gender string) (models.IdolMetadata, error) {
	if len(table.Rows) == 0 {
		return models.IdolMetadata{}, fmt.Errorf("metadata table for %s is empty: %w", gender, ErrNotFound)
	}
	name = strings.TrimSpace(name)
	for _, row := range table.Rows {
		if cell(row, 0) == name && cell(row, 2) == gender {
			return toMetadata(table.Headers, row), nil
		}
	}
	return models.IdolMetadata{}, fmt.Errorf("metadata for %s (%s): %w", name, gender, ErrNotFound)
}

// AllMetadata returns every row whose trimmed gender matches, in table order.
func AllMetadata(table MetadataTable, gender string) []models.IdolMetadata {
	out := make([]models.IdolMetadata, 0, len(table.Rows))
	for _, row := range table.Rows {
		if cell(row, 2) == gender {
			out = append(out, toMetadata(table.Headers, row))
		}
	}
	return out
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func toMetadata(headers, row []string) models.IdolMetadata {
	var m models.IdolMetadata
	for i, h := range headers {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		m.Set(h, value)
	}
	return m
}
