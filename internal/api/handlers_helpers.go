// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/metrics"
	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/origin"
	"github.com/tomtom215/idolstats/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a 200 JSON response. Failures are carried in the body
// envelope, never in the status code.
func respondJSON(w http.ResponseWriter, response any) {
	respondJSONStatus(w, http.StatusOK, response)
}

// respondJSONStatus sends a JSON response with proper headers
func respondJSONStatus(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

func errorEnvelope(message string) models.ErrorResponse {
	return models.ErrorResponse{Status: models.StatusError, Message: message}
}

// respondError answers with the error envelope and logs the cause.
func respondError(w http.ResponseWriter, r *http.Request, action, message string, err error) {
	if action == "" {
		action = "metrics"
	}
	metrics.APIErrorEnvelopes.WithLabelValues(action).Inc()

	if err != nil {
		event := logging.Ctx(r.Context()).Error()
		if errors.Is(err, origin.ErrNotFound) || errors.Is(err, context.Canceled) {
			event = logging.Ctx(r.Context()).Debug()
		}
		event.
			Str("action", sanitizeLogValue(action)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API Error")
	}

	respondJSON(w, errorEnvelope(message))
}

// validateRequest validates a struct using go-playground/validator and
// returns a readable message, or "" when the request is valid.
func validateRequest(v any) string {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return ""
	}
	return validationErr.Error()
}

// getParam returns a query parameter, or def when it is absent or blank.
func getParam(r *http.Request, key, def string) string {
	if value := strings.TrimSpace(r.URL.Query().Get(key)); value != "" {
		return value
	}
	return def
}

// getBoolParam reports whether a query parameter is exactly "true".
func getBoolParam(r *http.Request, key string) bool {
	return r.URL.Query().Get(key) == "true"
}
