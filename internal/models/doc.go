// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package models defines the data types shared by the server, the cache tiers
and the terminal client.

Records:
  - MetricRecord: one (idol, month) count for a single platform
  - IdolMetadata: one row of the per-gender idol metadata table

Envelopes:
  - DataResponse: month data plus the month index
  - MetadataResponse / AllMetadataResponse: metadata lookups
  - ErrorResponse: any failure

Every response carries a "status" of "success" or "error". Failures are
reported in the body rather than the HTTP status code so that a cached
reverse proxy or a browser fetch sees a uniform 200 response.
*/
package models
