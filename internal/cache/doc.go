// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package cache provides the TTL key-value store used by both cache tiers.

A Store[T] keeps typed values in a byte-oriented Backend. Every value is
wrapped in an envelope that records when it was written and for how long it
stays fresh:

	{"key": "meta_남자_웨이보", "payload": [...], "timestamp": 1735689600000, "ttl": 21600000}

Timestamps and TTLs are milliseconds. An entry is expired once
now - timestamp > ttl; expiry is checked lazily on Get, which deletes the
stale entry and reports a miss. Sweep reclaims expired entries in bulk.

Backends:
  - MemoryBackend: a mutex-guarded map, used by tests and by servers that do
    not need the cache to survive a restart
  - BadgerBackend: a BadgerDB directory, used by the terminal client and
    optionally by the server

Several stores can share one backend; each owns a key prefix (a collection)
so that Clear and Sweep only touch their own entries.

Keys follow one scheme in both tiers, see MonthIndexKey, MonthDataKey,
MetadataKey and AllMetadataKey.
*/
package cache
