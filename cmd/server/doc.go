// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Command server runs the idolstats read endpoint and cache warmer.

The server reads idol metrics from a spreadsheet export through DuckDB,
keeps month indexes, month data and metadata in a TTL cache (in memory or
Badger), and answers GET /api/v1/data with JSON envelopes. A daily warm
schedule (Asia/Seoul by default) pre-populates the cache so that most
requests never touch the origin.

# Components

  - origin: DuckDB over the exported CSV/XLSX, behind a circuit breaker
  - servercache: read-through TTL cache with a 100 KB entry ceiling
  - warmer: batch warm runs with a wall-clock ceiling and e-mail alerts
  - api: chi router with CORS, per-IP rate limiting and /metrics
  - supervisor: suture tree with data, jobs and api layers

# Configuration

Configuration is layered with koanf: defaults, then config.yaml (or
CONFIG_PATH), then environment variables. The most used variables:

	HTTP_PORT               listen port (8080)
	ORIGIN_DATA_PATH        CSV/XLSX export or DuckDB database file
	CACHE_BACKEND           memory or badger
	CACHE_PATH              badger directory
	WARMER_ENABLED          run the daily warm schedule (true)
	RESEND_API_KEY          enables warm failure e-mails
	NOTIFY_TO               comma-separated recipients
	LOG_LEVEL, LOG_FORMAT   zerolog level and json|console

# Flags

	-warm-on-start   run one full warm at boot, before the first schedule

# Signals

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for SHUTDOWN_TIMEOUT, a running warm job is canceled,
and the cache backend and DuckDB connections are closed.
*/
package main
