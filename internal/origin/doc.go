// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package origin reads the tabular source of truth for Idolstats.

The origin holds one row per (idol, platform, month) with columns in fixed
order: name, group, gender, platform, date, count. Rows are read in full on
every scan and filtered in memory; the origin has no index and the caches
in front of it exist so that it is scanned rarely.

Idol metadata lives in one table per gender (the girl band and boy band
sheets). The first row is the header; the name is in column 0 and the
gender in column 2.

Sources:
  - DuckDBSource: CSV exports read through read_csv_auto, or tables in a
    DuckDB database file
  - Guarded: wraps any Source in a circuit breaker
  - MemorySource: fixed rows, for tests and tooling

Date normalization accepts time values (formatted in GMT+9), strings in
YYYY.MM, YYYY/MM or YYYY-MM form with a one or two digit month, and falls
back to the first seven characters of anything longer. Counts tolerate
thousands separators; anything unparseable counts as zero.
*/
package origin
