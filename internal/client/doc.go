// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package client is a typed HTTP client for the Idolstats read endpoint.

The endpoint answers every request with HTTP 200 and reports failures in
the body envelope. The client turns {"status":"error"} envelopes into
errors wrapping ErrRemote, and non-200 answers (rate limiting, proxies)
into errors wrapping ErrHTTP.

Records are validated when they cross the network boundary: invalid
MetricRecord or IdolMetadata entries are dropped and logged, never
returned to callers.

Calls go through a gobreaker circuit breaker. Error envelopes mean the
endpoint is up and do not count as failures; transport errors and non-200
answers do.

Usage:

	c := client.New(cfg.Client)
	resp, err := c.Data(ctx, client.DataQuery{
	    Gender:      models.GenderMale,
	    Platform:    models.PlatformWeibo,
	    Init:        true,
	    SortByCount: true,
	    Limit:       10,
	})
*/
package client
