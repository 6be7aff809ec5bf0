// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package origin

import (
	"math"
	"testing"
	"time"
)

func TestNormalizeMonth(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"dash", "2025-03", "2025-03"},
		{"dot single digit", "2025.3", "2025-03"},
		{"slash", "2025/11", "2025-11"},
		{"full date", "2025-03-15", "2025-03"},
		{"embedded", "as of 2024.12.01", "2024-12"},
		{"long fallback", "March 2025", "March 2"},
		{"short passthrough", "2025", "2025"},
		{"empty", "", ""},
		{"nil", nil, ""},
		{"bytes", []byte("2025.01"), "2025-01"},
		{"utc midnight stays in month", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2025-01"},
		{"utc evening rolls into next month", time.Date(2025, 1, 31, 20, 0, 0, 0, time.UTC), "2025-02"},
		{"number", 202503, "202503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMonth(tt.in); got != tt.want {
				t.Errorf("NormalizeMonth(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsMonth(t *testing.T) {
	for in, want := range map[string]bool{
		"2025-01": true,
		"2025-1":  false,
		"March 2": false,
		"":        false,
		"2025-13": true, // shape only
	} {
		if got := IsMonth(in); got != want {
			t.Errorf("IsMonth(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"plain", "1200", 1200},
		{"thousands separators", "1,234,567", 1234567},
		{"padded", " 42 ", 42},
		{"empty", "", 0},
		{"text", "n/a", 0},
		{"nil", nil, 0},
		{"int64", int64(7), 7},
		{"float truncates", 12.9, 12},
		{"negative clamps", "-5", 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"exponent", "1e3", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCount(tt.in); got != tt.want {
				t.Errorf("ParseCount(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMonthMemo(t *testing.T) {
	memo := NewMonthMemo()
	for i := 0; i < 3; i++ {
		if got := memo.Normalize("2025.4"); got != "2025-04" {
			t.Fatalf("Normalize() = %q", got)
		}
	}
	memo.Normalize(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	if memo.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (time values are not memoized)", memo.Len())
	}
}
