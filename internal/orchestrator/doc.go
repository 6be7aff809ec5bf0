// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package orchestrator drives progressive loading for the terminal client.

The orchestrator keeps a working set (month -> records) for one selected
(gender, platform) pair and moves through these states:

	Idle -> QuickLoading -> QuickLoaded -> FullLoading -> FullLoaded

Load shows something fast: the persistent cache when it holds the newest
month, otherwise a limited, count-sorted request. A full load of the newest
two months follows in the background and replaces the quick results.
HandleMonthChange renders from memory when it can and fetches otherwise.

Background work:
  - full load: single-flight, records persisted one month at a time
  - top metadata: the visible top ten, fetched in parallel
  - bulk metadata: current gender, then the opposite one after a pause
  - neighbor months: paced by a rate limiter, skipped in save-data mode

Every load captures the selection generation when it starts. SetSelection
bumps the generation, so results that arrive for an older selection are
discarded rather than cancelled. Wait blocks until background work is done.
*/
package orchestrator
