// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package origin

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/idolstats/internal/models"
)

// MemorySource is a Source over fixed rows. It counts scans so callers can
// assert how often the origin was read.
type MemorySource struct {
	mu       sync.RWMutex
	rows     []models.RawRow
	metadata map[string]MetadataTable
	err      error

	scans atomic.Int64
}

// NewMemorySource returns a source serving rows.
func NewMemorySource(rows []models.RawRow) *MemorySource {
	return &MemorySource{
		rows:     rows,
		metadata: make(map[string]MetadataTable),
	}
}

// SetRows replaces the data rows.
func (m *MemorySource) SetRows(rows []models.RawRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

// SetMetadata sets the metadata table for a gender.
func (m *MemorySource) SetMetadata(gender string, table MetadataTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[gender] = table
}

// SetError makes every read fail with err. Nil restores normal reads.
func (m *MemorySource) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Scans returns how many times Rows or Metadata has been called.
func (m *MemorySource) Scans() int64 {
	return m.scans.Load()
}

// Rows implements Source. The returned slice is a copy.
func (m *MemorySource) Rows(ctx context.Context) ([]models.RawRow, error) {
	m.scans.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.RawRow(nil), m.rows...), nil
}

// Metadata implements Source.
func (m *MemorySource) Metadata(ctx context.Context, gender string) (MetadataTable, error) {
	m.scans.Add(1)
	if err := ctx.Err(); err != nil {
		return MetadataTable{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return MetadataTable{}, m.err
	}
	return m.metadata[gender], nil
}
