// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

// Package query shapes month data for the read endpoint: which months to
// read, how to order the records and how many to return per month.
package query

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/idolstats/internal/models"
)

// Request is a parsed metrics query.
type Request struct {
	Gender      string
	Platform    string
	Month       string // empty when not requested
	Init        bool
	SortByCount bool
	Limit       int // 0 means unlimited
}

// MonthReader is the part of the server cache a query needs.
type MonthReader interface {
	GetMonthIndex(ctx context.Context, gender, platform string) ([]string, error)
	GetMonthData(ctx context.Context, gender, platform, month string) ([]models.MetricRecord, error)
}

// Execute answers a metrics query. Any read failure fails the whole query;
// there is no partial result.
func Execute(ctx context.Context, r MonthReader, req Request) (models.DataResponse, error) {
	index, err := r.GetMonthIndex(ctx, req.Gender, req.Platform)
	if err != nil {
		return models.DataResponse{}, fmt.Errorf("month index for %s/%s: %w", req.Gender, req.Platform, err)
	}

	var records []models.MetricRecord
	for _, month := range SelectMonths(index, req.Month, req.Init) {
		data, err := r.GetMonthData(ctx, req.Gender, req.Platform, month)
		if err != nil {
			return models.DataResponse{}, fmt.Errorf("month data for %s/%s/%s: %w", req.Gender, req.Platform, month, err)
		}
		records = append(records, data...)
	}

	total := len(records)
	if req.SortByCount && len(records) > 0 {
		SortByReference(records, ReferenceMonth(req.Month, index))
	}
	records = LimitPerMonth(records, req.Limit)

	if index == nil {
		index = []string{}
	}
	if records == nil {
		records = []models.MetricRecord{}
	}
	return models.DataResponse{
		Status: models.StatusSuccess,
		Meta: models.DataMeta{
			AllMonths: index,
			Total:     total,
			Returned:  len(records),
		},
		Data: records,
	}, nil
}

// SelectMonths picks the months to read from an ascending index.
//
//   - month set and present: the month and its predecessor, or just the
//     month when it is the first one
//   - month set but absent: nothing
//   - init: the newest two months
//   - otherwise: every month
func SelectMonths(index []string, month string, init bool) []string {
	if month != "" {
		for i, m := range index {
			if m != month {
				continue
			}
			if i > 0 {
				return []string{index[i-1], m}
			}
			return []string{m}
		}
		return []string{}
	}
	if init && len(index) > 2 {
		return append([]string(nil), index[len(index)-2:]...)
	}
	return append([]string(nil), index...)
}

// ReferenceMonth is the month counts are ranked by: the requested month, or
// the newest month in the index.
func ReferenceMonth(month string, index []string) string {
	if month != "" || len(index) == 0 {
		return month
	}
	return index[len(index)-1]
}

// SortByReference stably sorts records by their count in the reference
// month, descending. Records of other months rank as zero, so they keep
// their relative order after the reference month's records.
func SortByReference(records []models.MetricRecord, ref string) {
	key := func(r *models.MetricRecord) int64 {
		if r.Date == ref {
			return r.Count
		}
		return 0
	}
	sort.SliceStable(records, func(i, j int) bool {
		return key(&records[i]) > key(&records[j])
	})
}

// LimitPerMonth keeps the first limit records of each month. Months appear
// in the order their first record does. A limit below 1 returns records
// unchanged.
func LimitPerMonth(records []models.MetricRecord, limit int) []models.MetricRecord {
	if limit < 1 {
		return records
	}

	var order []string
	groups := make(map[string][]models.MetricRecord)
	for _, r := range records {
		if _, seen := groups[r.Date]; !seen {
			order = append(order, r.Date)
		}
		if len(groups[r.Date]) < limit {
			groups[r.Date] = append(groups[r.Date], r)
		}
	}

	out := make([]models.MetricRecord, 0, len(records))
	for _, date := range order {
		out = append(out, groups[date]...)
	}
	return out
}

// ParseLimit reads a limit parameter the lenient way browsers send it:
// leading whitespace is skipped and the leading run of digits is used, so
// "10" and "10px" are both 10. Anything else, or a non-positive value, is 0.
func ParseLimit(s string) int {
	s = strings.TrimLeft(s, " \t\n\r")
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || sign < 0 || n < 1 {
		return 0
	}
	return n
}
