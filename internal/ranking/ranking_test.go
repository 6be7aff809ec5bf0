// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package ranking

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tomtom215/idolstats/internal/models"
)

func TestComputeGrowth(t *testing.T) {
	tests := []struct {
		name      string
		current   int64
		base      int64
		sameMonth bool
		want      string
	}{
		{"up", 150, 100, false, "50.00"},
		{"down", 75, 100, false, "-25.00"},
		{"two decimals", 1, 3, false, "-66.67"},
		{"vanished", 0, 100, false, "-100"},
		{"new entry", 100, 0, false, NoGrowth},
		{"first month", 150, 100, true, NoGrowth},
		{"flat", 100, 100, false, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeGrowth(tt.current, tt.base, tt.sameMonth)
			if got.Display != tt.want {
				t.Errorf("ComputeGrowth(%d, %d) = %q, want %q", tt.current, tt.base, got.Display, tt.want)
			}
			if got.Known() != (tt.want != NoGrowth) {
				t.Errorf("Known() = %v", got.Known())
			}
		})
	}
}

func TestBaseMonth(t *testing.T) {
	months := []string{"2025-01", "2025-02", "2025-03"}
	tests := map[string]string{
		"2025-03": "2025-02",
		"2025-02": "2025-01",
		"2025-01": "2025-01",
		"2024-12": "2024-12",
	}
	for target, want := range tests {
		if got := BaseMonth(target, months); got != want {
			t.Errorf("BaseMonth(%s) = %s, want %s", target, got, want)
		}
	}
}

func rec(name, group, date string, count int64) models.MetricRecord {
	return models.MetricRecord{Name: name, Group: group, Date: date, Count: count}
}

func TestRank(t *testing.T) {
	records := []models.MetricRecord{
		rec("A", "G1", "2025-01", 100),
		rec("B", "G1", "2025-01", 50),
		rec("C", "G2", "2025-01", 10),
		rec("A", "G1", "2025-02", 300),
		rec("B", "G1", "2025-02", 300),
		rec("D", "G2", "2025-02", 200),
		rec("E", "G3", "2025-02", 0),
	}

	got := Rank(records, "2025-02", "2025-01", "")

	want := []struct {
		rank   int
		name   string
		growth string
	}{
		{1, "A", "200.00"},
		{1, "B", "500.00"},
		{3, "D", NoGrowth},
		{4, "C", "-100"},
	}
	if len(got) != len(want) {
		t.Fatalf("Rank() returned %d entries: %+v", len(got), got)
	}
	for i, w := range want {
		if got[i].Rank != w.rank || got[i].Name != w.name || got[i].Growth.Display != w.growth {
			t.Errorf("entry %d = {%d %s %s}, want {%d %s %s}",
				i, got[i].Rank, got[i].Name, got[i].Growth.Display, w.rank, w.name, w.growth)
		}
	}
}

func TestRank_FirstMonth(t *testing.T) {
	records := []models.MetricRecord{rec("A", "G", "2025-01", 5), rec("B", "G", "2025-01", 9)}
	got := Rank(records, "2025-01", "2025-01", "")
	if len(got) != 2 || got[0].Name != "B" {
		t.Fatalf("Rank() = %+v", got)
	}
	for _, e := range got {
		if e.Growth.Known() {
			t.Errorf("%s growth = %q, want %q", e.Name, e.Growth.Display, NoGrowth)
		}
	}
}

func TestRank_Search(t *testing.T) {
	records := []models.MetricRecord{
		rec("Jung Kook", "BTS", "2025-02", 10),
		rec("하니", "NewJeans", "2025-02", 20),
		rec("민지", "New Jeans", "2025-02", 30),
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"", []string{"민지", "하니", "Jung Kook"}},
		{"jungkook", []string{"Jung Kook"}},
		{" JUNG  KOOK ", []string{"Jung Kook"}},
		{"newjeans", []string{"민지", "하니"}},
		{"bts", []string{"Jung Kook"}},
		// Decomposed jamo for 하니 must match the composed name.
		{"\u1112\u1161\u1102\u1175", []string{"하니"}},
		{"nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			var names []string
			for _, e := range Rank(records, "2025-02", "2025-01", tt.search) {
				names = append(names, e.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Rank(search=%q) = %v, want %v", tt.search, names, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	if !Matches("Jung Kook", "BTS", "") {
		t.Error("empty search should match everything")
	}
	if !Matches("Jung Kook", "BTS", "g k") {
		t.Error("whitespace should be ignored")
	}
	if Matches("Jung Kook", "BTS", "jimin") {
		t.Error("unexpected match")
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount() = %q", got)
	}
	if got := FormatMonth("2025-02"); got != "25년2월" {
		t.Errorf("FormatMonth() = %q", got)
	}
	if got := FormatMonth("garbage"); got != "garbage" {
		t.Errorf("FormatMonth(garbage) = %q", got)
	}

	tests := []struct {
		g    Growth
		want string
	}{
		{ComputeGrowth(225, 200, false), "▲ 12.5%"},
		{ComputeGrowth(0, 200, false), "▼ 100%"},
		{ComputeGrowth(1, 3, false), "▼ 66.67%"},
		{ComputeGrowth(200, 200, false), "▲ 0%"},
		{ComputeGrowth(5, 0, false), "-"},
	}
	for _, tt := range tests {
		if got := FormatGrowth(tt.g); got != tt.want {
			t.Errorf("FormatGrowth(%q) = %q, want %q", tt.g.Display, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	entries := Rank([]models.MetricRecord{
		rec("A", "G", "2025-01", 1000),
		rec("A", "G", "2025-02", 1500),
	}, "2025-02", "2025-01", "")

	if err := Render(&buf, entries, "2025-02", "2025-01"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"25년1월 대비", "1,500", "▲ 50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := Render(&buf, nil, "2025-02", "2025-01"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "데이터가 없습니다") {
		t.Errorf("empty output = %q", buf.String())
	}
}
