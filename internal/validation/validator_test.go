// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/idolstats/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}

func TestValidateStruct_MetricRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  models.MetricRecord
		wantTag string
	}{
		{"valid", models.MetricRecord{Name: "하니", Group: "뉴진스", Date: "2025-03", Count: 1200}, ""},
		{"zero count", models.MetricRecord{Name: "하니", Date: "2025-03"}, ""},
		{"missing name", models.MetricRecord{Date: "2025-03", Count: 1}, "required"},
		{"bad month", models.MetricRecord{Name: "a", Date: "2025-13", Count: 1}, "yearmonth"},
		{"dotted month", models.MetricRecord{Name: "a", Date: "2025.03", Count: 1}, "yearmonth"},
		{"negative count", models.MetricRecord{Name: "a", Date: "2025-03", Count: -1}, "gte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.record)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s failure", tt.wantTag)
			}
			if got := err.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_GenderTag(t *testing.T) {
	type request struct {
		Gender string `validate:"gender"`
	}
	if err := ValidateStruct(&request{Gender: models.GenderFemale}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidateStruct(&request{Gender: "female"})
	if err == nil || !strings.Contains(err.Error(), "남자 or 여자") {
		t.Errorf("error = %v, want gender message", err)
	}
}

func TestRequestValidationError_CombinedMessage(t *testing.T) {
	err := ValidateStruct(&models.MetricRecord{Date: "bad", Count: -5})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(err.Errors()), err)
	}
	for _, want := range []string{"Name is required", "YYYY-MM", "greater than or equal to 0"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("message %q missing %q", err.Error(), want)
		}
	}
}

func TestFilterRecords(t *testing.T) {
	in := []models.MetricRecord{
		{Name: "a", Date: "2025-01", Count: 1},
		{Name: "", Date: "2025-01", Count: 1},
		{Name: "b", Date: "2025-02", Count: 2},
		{Name: "c", Date: "25-02", Count: 2},
	}
	out, dropped := FilterRecords(in)
	if dropped != 2 || len(out) != 2 {
		t.Fatalf("FilterRecords kept %d dropped %d, want 2/2", len(out), dropped)
	}
	if out[0].Name != "a" || out[1].Name != "b" {
		t.Errorf("kept %v", out)
	}
}

func TestValidYearMonth(t *testing.T) {
	for s, want := range map[string]bool{
		"2025-01":    true,
		"2025-12":    true,
		"2025-00":    false,
		"2025-1":     false,
		"2025-01-05": false,
	} {
		if got := ValidYearMonth(s); got != want {
			t.Errorf("ValidYearMonth(%q) = %v, want %v", s, got, want)
		}
	}
}
