// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package origin

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/idolstats/internal/breaker"
	"github.com/tomtom215/idolstats/internal/models"
)

// Guarded wraps a Source in a circuit breaker. While the circuit is open,
// reads fail immediately with ErrSourceUnavailable instead of hitting the
// origin.
type Guarded struct {
	next Source
	cb   *breaker.Breaker
}

// NewGuarded wraps next. Context cancellation does not count as an origin
// failure.
func NewGuarded(next Source, settings breaker.Settings) *Guarded {
	if settings.Name == "" {
		settings.Name = "origin"
	}
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	}
	return &Guarded{next: next, cb: breaker.New(settings)}
}

// Rows implements Source.
func (g *Guarded) Rows(ctx context.Context) ([]models.RawRow, error) {
	rows, err := breaker.Execute(g.cb, func() ([]models.RawRow, error) {
		return g.next.Rows(ctx)
	})
	return rows, g.wrap(err)
}

// Metadata implements Source.
func (g *Guarded) Metadata(ctx context.Context, gender string) (MetadataTable, error) {
	table, err := breaker.Execute(g.cb, func() (MetadataTable, error) {
		return g.next.Metadata(ctx, gender)
	})
	return table, g.wrap(err)
}

// State returns the breaker state.
func (g *Guarded) State() string {
	return g.cb.State()
}

func (g *Guarded) wrap(err error) error {
	if err != nil && breaker.IsRejection(err) {
		return fmt.Errorf("%w: circuit %s: %w", ErrSourceUnavailable, g.cb.State(), err)
	}
	return err
}
