// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package api

import (
	"context"
	"time"

	"github.com/tomtom215/idolstats/internal/models"
	"github.com/tomtom215/idolstats/internal/query"
)

// DataCache is the read side of the server cache tier.
type DataCache interface {
	query.MonthReader
	GetAllMetadata(ctx context.Context, gender string) ([]models.IdolMetadata, error)
	GetMetadata(ctx context.Context, name, gender string) (models.IdolMetadata, error)
}

// ReadinessFunc reports whether the service can answer data requests.
type ReadinessFunc func(ctx context.Context) map[string]bool

// Handler serves the read endpoint and the health probes.
type Handler struct {
	cache     DataCache
	readiness ReadinessFunc
	startTime time.Time
}

// NewHandler creates a handler backed by the given cache. readiness may be
// nil, in which case the service is always ready.
func NewHandler(cache DataCache, readiness ReadinessFunc) *Handler {
	return &Handler{
		cache:     cache,
		readiness: readiness,
		startTime: time.Now(),
	}
}
