// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthLive(t *testing.T) {
	t.Parallel()

	handler := &Handler{startTime: time.Now().Add(-time.Hour)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	w := httptest.NewRecorder()
	handler.HealthLive(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != "alive" || resp.Uptime < 3600 {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler := &Handler{startTime: time.Now()}
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			for _, h := range []http.HandlerFunc{handler.HealthLive, handler.HealthReady} {
				w := httptest.NewRecorder()
				h(w, httptest.NewRequest(method, "/api/v1/health/live", nil))
				if w.Code != http.StatusMethodNotAllowed {
					t.Errorf("status = %d, want 405", w.Code)
				}
			}
		})
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		readiness  ReadinessFunc
		wantStatus int
	}{
		{"no checks", nil, http.StatusOK},
		{"all ok", func(context.Context) map[string]bool {
			return map[string]bool{"origin": true, "cache": true}
		}, http.StatusOK},
		{"origin down", func(context.Context) map[string]bool {
			return map[string]bool{"origin": false, "cache": true}
		}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(newFakeCache(), tt.readiness)
			w := httptest.NewRecorder()
			handler.HealthReady(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
