// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package services adapts idolstats components to suture.Service.

Each adapter translates a component's own lifecycle into suture's
Serve(ctx) error contract:

  - HTTPServerService: ListenAndServe/Shutdown of the read endpoint
  - CacheSweepService: periodic removal of expired server cache entries
  - WarmSchedulerService: Start/Stop of the warm scheduler

Adapters depend on small interfaces rather than concrete types so they can
be tested without a network listener or a real cache.
*/
package services
