// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package origin

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB database/sql driver

	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/metrics"
	"github.com/tomtom215/idolstats/internal/models"
)

// dataColumns is the number of positional columns a data row must have.
const dataColumns = 6

// DuckDBSource reads the origin through DuckDB.
//
// A path ending in .csv, .tsv or .txt is read with read_csv_auto on an
// in-memory connection, every column as VARCHAR so that the origin's cell
// text reaches normalization untouched. Any other path is opened read-only
// as a DuckDB database file and the configured table is queried.
type DuckDBSource struct {
	cfg config.OriginConfig

	mu    sync.Mutex
	mem   *sql.DB
	files map[string]*sql.DB
}

// NewDuckDBSource creates a source. Connections are opened lazily, so a
// missing origin file surfaces on the first read rather than at startup.
func NewDuckDBSource(cfg config.OriginConfig) *DuckDBSource {
	return &DuckDBSource{
		cfg:   cfg,
		files: make(map[string]*sql.DB),
	}
}

// Rows implements Source.
func (s *DuckDBSource) Rows(ctx context.Context) ([]models.RawRow, error) {
	start := time.Now()
	rows, err := s.scanRows(ctx)
	metrics.RecordDBQuery("scan", s.cfg.DataTable, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	metrics.OriginRowsRead.WithLabelValues(s.cfg.DataTable).Add(float64(len(rows)))
	logging.Debug().Int("rows", len(rows)).Dur("elapsed", time.Since(start)).Msg("Scanned origin data")
	return rows, nil
}

func (s *DuckDBSource) scanRows(ctx context.Context) ([]models.RawRow, error) {
	db, from, err := s.relation(s.cfg.DataPath, s.cfg.DataTable)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+from)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrSourceUnavailable, s.cfg.DataPath, err)
	}
	defer closeQuietly(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns of %s: %w", ErrSourceUnavailable, s.cfg.DataPath, err)
	}
	if len(cols) < dataColumns {
		return nil, fmt.Errorf("%w: %s has %d columns, need %d (name, group, gender, platform, date, count)",
			ErrSourceUnavailable, s.cfg.DataPath, len(cols), dataColumns)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var out []models.RawRow
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan origin row: %w", err)
		}
		out = append(out, models.RawRow{
			Name:     textValue(values[0]),
			Group:    textValue(values[1]),
			Gender:   textValue(values[2]),
			Platform: textValue(values[3]),
			Date:     values[4],
			Count:    values[5],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate origin rows: %w", err)
	}
	return out, nil
}

// Metadata implements Source.
func (s *DuckDBSource) Metadata(ctx context.Context, gender string) (MetadataTable, error) {
	path := s.cfg.MaleMetadataPath
	if gender == models.GenderFemale {
		path = s.cfg.FemaleMetadataPath
	}

	start := time.Now()
	table, err := s.scanMetadata(ctx, path)
	metrics.RecordDBQuery("metadata", s.cfg.MetadataTable, time.Since(start), err)
	if err != nil {
		return MetadataTable{}, err
	}
	metrics.OriginRowsRead.WithLabelValues(s.cfg.MetadataTable).Add(float64(len(table.Rows)))
	return table, nil
}

func (s *DuckDBSource) scanMetadata(ctx context.Context, path string) (MetadataTable, error) {
	db, from, err := s.relation(path, s.cfg.MetadataTable)
	if err != nil {
		return MetadataTable{}, err
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+from)
	if err != nil {
		return MetadataTable{}, fmt.Errorf("%w: query %s: %w", ErrSourceUnavailable, path, err)
	}
	defer closeQuietly(rows)

	headers, err := rows.Columns()
	if err != nil {
		return MetadataTable{}, fmt.Errorf("%w: columns of %s: %w", ErrSourceUnavailable, path, err)
	}

	values := make([]any, len(headers))
	ptrs := make([]any, len(headers))
	for i := range values {
		ptrs[i] = &values[i]
	}

	table := MetadataTable{Headers: headers}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return MetadataTable{}, fmt.Errorf("scan metadata row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = textValue(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return MetadataTable{}, fmt.Errorf("iterate metadata rows: %w", err)
	}
	return table, nil
}

// relation returns the connection and FROM clause for a path.
func (s *DuckDBSource) relation(path, table string) (*sql.DB, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("%w: no path configured", ErrSourceUnavailable)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if isDelimited(path) {
		if s.mem == nil {
			db, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
			if err != nil {
				return nil, "", fmt.Errorf("%w: open in-memory database: %w", ErrSourceUnavailable, err)
			}
			s.mem = db
		}
		return s.mem, fmt.Sprintf("read_csv_auto(%s, header=true, all_varchar=true)", quoteLiteral(path)), nil
	}

	db, ok := s.files[path]
	if !ok {
		var err error
		db, err = sql.Open("duckdb", path+"?access_mode=read_only&autoinstall_known_extensions=false&autoload_known_extensions=false")
		if err != nil {
			return nil, "", fmt.Errorf("%w: open %s: %w", ErrSourceUnavailable, path, err)
		}
		s.files[path] = db
	}
	return db, quoteIdentifier(table), nil
}

// Close releases every open connection.
func (s *DuckDBSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.mem != nil {
		firstErr = s.mem.Close()
		s.mem = nil
	}
	for path, db := range s.files {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.files, path)
	}
	return firstErr
}

func isDelimited(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// textValue renders a scanned cell as text. NULL is the empty string.
func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// closeQuietly closes a resource, ignoring any error.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
