// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package api

import (
	"net/http"
	"time"
)

// HealthResponse is the body of both health probes.
type HealthResponse struct {
	Status string          `json:"status"`
	Uptime float64         `json:"uptime"`
	Checks map[string]bool `json:"checks,omitempty"`
}

// HealthLive handles liveness probe requests.
// Returns 200 OK as long as the process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSONStatus(w, http.StatusMethodNotAllowed, errorEnvelope("method not allowed"))
		return
	}

	respondJSONStatus(w, http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests.
// Returns 503 when any dependency check fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondJSONStatus(w, http.StatusMethodNotAllowed, errorEnvelope("method not allowed"))
		return
	}

	var checks map[string]bool
	if h.readiness != nil {
		checks = h.readiness(r.Context())
	}

	ready := true
	for _, ok := range checks {
		ready = ready && ok
	}

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSONStatus(w, statusCode, HealthResponse{
		Status: status,
		Uptime: time.Since(h.startTime).Seconds(),
		Checks: checks,
	})
}
