// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

/*
Package supervisor provides process supervision for the idolstats server
using suture v4.

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("idolstats")
	├── DataSupervisor ("data-layer")
	│   └── CacheSweepService
	├── JobsSupervisor ("jobs-layer")
	│   └── WarmSchedulerService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed warm scheduler is restarted without touching the HTTP server,
and the API keeps serving cached and read-through responses while the data
layer recovers.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddDataService(services.NewCacheSweepService(serverCache, cfg.Cache.SweepInterval))
	tree.AddJobsService(services.NewWarmSchedulerService(scheduler))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog, which writes to the zerolog stream via logging.NewSlogLogger.

# Restart Policy

A service failing more than FailureThreshold times within the FailureDecay
window puts its supervisor into backoff for FailureBackoff. Services that
finish for good return suture.ErrDoNotRestart.

See the services subpackage for the adapters.
*/
package supervisor
