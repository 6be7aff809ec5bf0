// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package api provides the read endpoint of Idolstats.

A single stateless GET endpoint answers three kinds of request, selected by
the action parameter:

  - (no action): month data for a (gender, platform) pair
  - action=metadata: one idol's metadata
  - action=allMetadata: every idol's metadata for a gender

The endpoint is mounted at / and at /api/v1/data. Every answer is a JSON
envelope with HTTP 200; failures are reported in the body:

	{"status": "success", "meta": {"allMonths": [...], "total": 18, "returned": 13}, "data": [...]}
	{"status": "error", "message": "..."}

Month-data parameters:

  - gender: 남자 (default) or 여자
  - sns: platform name, default 웨이보
  - month: YYYY-MM; returns that month and the one before it
  - init=true: returns the newest two months
  - sortByCount=true: orders by count in the reference month
  - limit: keeps the first N records of each month

Ambient routes:

  - /api/v1/health/live and /api/v1/health/ready
  - /metrics for Prometheus

Middleware stack (outermost first): request ID with logging context, real
IP, panic recovery, CORS, rate limiting, Prometheus metrics, compression.
*/
package api
