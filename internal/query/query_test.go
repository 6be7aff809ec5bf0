// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package query

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/tomtom215/idolstats/internal/models"
)

func TestSelectMonths(t *testing.T) {
	index := []string{"2025-01", "2025-02", "2025-03"}

	tests := []struct {
		name  string
		index []string
		month string
		init  bool
		want  []string
	}{
		{"month with predecessor", index, "2025-02", false, []string{"2025-01", "2025-02"}},
		{"first month alone", index, "2025-01", false, []string{"2025-01"}},
		{"absent month", index, "2024-12", false, []string{}},
		{"month wins over init", index, "2025-03", true, []string{"2025-02", "2025-03"}},
		{"init takes newest two", index, "", true, []string{"2025-02", "2025-03"}},
		{"init with one month", []string{"2025-01"}, "", true, []string{"2025-01"}},
		{"everything", index, "", false, index},
		{"empty index", nil, "", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectMonths(tt.index, tt.month, tt.init)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectMonths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReferenceMonth(t *testing.T) {
	index := []string{"2025-01", "2025-02"}
	if got := ReferenceMonth("2025-01", index); got != "2025-01" {
		t.Errorf("explicit month = %q", got)
	}
	if got := ReferenceMonth("", index); got != "2025-02" {
		t.Errorf("default = %q, want newest", got)
	}
	if got := ReferenceMonth("", nil); got != "" {
		t.Errorf("empty index = %q", got)
	}
}

func TestSortByReference(t *testing.T) {
	records := []models.MetricRecord{
		{Name: "old-big", Date: "2025-01", Count: 9000},
		{Name: "low", Date: "2025-02", Count: 10},
		{Name: "old-small", Date: "2025-01", Count: 1},
		{Name: "high", Date: "2025-02", Count: 500},
		{Name: "tie", Date: "2025-02", Count: 10},
	}
	SortByReference(records, "2025-02")

	var names []string
	for _, r := range records {
		names = append(names, r.Name)
	}
	want := []string{"high", "low", "tie", "old-big", "old-small"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func monthRecords(month string, n int) []models.MetricRecord {
	out := make([]models.MetricRecord, n)
	for i := range out {
		out[i] = models.MetricRecord{Name: fmt.Sprintf("%s-%d", month, i), Date: month, Count: int64(n - i)}
	}
	return out
}

func TestLimitPerMonth(t *testing.T) {
	records := append(monthRecords("2025-02", 15), monthRecords("2025-01", 3)...)

	got := LimitPerMonth(records, 10)
	if len(got) != 13 {
		t.Fatalf("LimitPerMonth() returned %d records, want 10+3", len(got))
	}
	if got[9].Date != "2025-02" || got[10].Date != "2025-01" {
		t.Errorf("groups should keep first-appearance order: got[9]=%s got[10]=%s", got[9].Date, got[10].Date)
	}
	if got[0].Name != "2025-02-0" {
		t.Errorf("first kept record = %s", got[0].Name)
	}

	if all := LimitPerMonth(records, 0); len(all) != 18 {
		t.Errorf("limit 0 should be ignored, got %d", len(all))
	}
}

func TestParseLimit(t *testing.T) {
	tests := map[string]int{
		"10":   10,
		" 7":   7,
		"10px": 10,
		"+3":   3,
		"0":    0,
		"-5":   0,
		"abc":  0,
		"":     0,
		"3.9":  3,
	}
	for in, want := range tests {
		if got := ParseLimit(in); got != want {
			t.Errorf("ParseLimit(%q) = %d, want %d", in, got, want)
		}
	}
}

type fakeReader struct {
	index []string
	data  map[string][]models.MetricRecord
	err   error
	reads []string
}

func (f *fakeReader) GetMonthIndex(context.Context, string, string) ([]string, error) {
	return f.index, nil
}

func (f *fakeReader) GetMonthData(_ context.Context, _, _, month string) ([]models.MetricRecord, error) {
	f.reads = append(f.reads, month)
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.MetricRecord(nil), f.data[month]...), nil
}

func TestExecute(t *testing.T) {
	r := &fakeReader{
		index: []string{"2025-01", "2025-02", "2025-03"},
		data: map[string][]models.MetricRecord{
			"2025-02": monthRecords("2025-02", 15),
			"2025-03": monthRecords("2025-03", 3),
		},
	}

	resp, err := Execute(context.Background(), r, Request{
		Gender: models.GenderMale, Platform: models.PlatformWeibo,
		Init: true, SortByCount: true, Limit: 10,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Status != models.StatusSuccess {
		t.Errorf("Status = %q", resp.Status)
	}
	if resp.Meta.Total != 18 || resp.Meta.Returned != 13 {
		t.Errorf("Meta = %+v, want total 18 returned 13", resp.Meta)
	}
	if !reflect.DeepEqual(r.reads, []string{"2025-02", "2025-03"}) {
		t.Errorf("months read = %v", r.reads)
	}
	// Reference month is the newest, so its records lead.
	if resp.Data[0].Date != "2025-03" {
		t.Errorf("first record month = %s, want 2025-03", resp.Data[0].Date)
	}
	if len(resp.Meta.AllMonths) != 3 {
		t.Errorf("AllMonths = %v", resp.Meta.AllMonths)
	}
}

func TestExecute_AbsentMonth(t *testing.T) {
	r := &fakeReader{index: []string{"2025-01"}}
	resp, err := Execute(context.Background(), r, Request{Month: "2030-01"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Data == nil || len(resp.Data) != 0 || resp.Meta.Total != 0 {
		t.Errorf("absent month should return an empty data array, got %+v", resp)
	}
}

func TestExecute_NoPartialSuccess(t *testing.T) {
	boom := errors.New("origin down")
	r := &fakeReader{index: []string{"2025-01"}, err: boom}
	if _, err := Execute(context.Background(), r, Request{}); !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v, want wrapped origin error", err)
	}
}
