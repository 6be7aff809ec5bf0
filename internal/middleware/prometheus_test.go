// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/idolstats/internal/metrics"
)

func TestPrometheusMetrics_RecordsStatus(t *testing.T) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK) // superfluous, must not change the label
	})

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/metrics-test/status", "503")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/metrics-test/status", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("503 counter delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_DefaultStatus(t *testing.T) {
	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/metrics-test/default", "200")
	before := testutil.ToFloat64(counter)

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/default", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("200 counter delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/items/{name}", func(w http.ResponseWriter, r *http.Request) {
		PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {})(w, r)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues("GET", "/api/v1/items/{name}", "200")
	before := testutil.ToFloat64(counter)

	for _, name := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/items/"+name, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("pattern counter delta = %v, want 3", got)
	}
}
