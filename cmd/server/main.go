// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/tomtom215/idolstats/internal/api"
	"github.com/tomtom215/idolstats/internal/breaker"
	"github.com/tomtom215/idolstats/internal/cache"
	"github.com/tomtom215/idolstats/internal/config"
	"github.com/tomtom215/idolstats/internal/logging"
	"github.com/tomtom215/idolstats/internal/metrics"
	"github.com/tomtom215/idolstats/internal/origin"
	"github.com/tomtom215/idolstats/internal/servercache"
	"github.com/tomtom215/idolstats/internal/supervisor"
	"github.com/tomtom215/idolstats/internal/supervisor/services"
	"github.com/tomtom215/idolstats/internal/warmer"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	warmOnStart := flag.Bool("warm-on-start", false, "run one full cache warm at boot")
	flag.Parse()

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("origin", cfg.Origin.DataPath).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("warmer_enabled", cfg.Warmer.Enabled).
		Msg("Starting idolstats server")

	// DuckDB origin behind the circuit breaker
	duck := origin.NewDuckDBSource(cfg.Origin)
	defer closeLogged("origin", duck)
	src := origin.NewGuarded(duck, breaker.Settings{
		Name:                "origin",
		ConsecutiveFailures: cfg.Origin.BreakerFailures,
		Timeout:             cfg.Origin.BreakerTimeout,
	})

	backend, gc, err := openBackend(cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cache backend")
	}
	defer closeLogged("cache backend", backend)

	serverCache := servercache.New(backend, src, cfg.Cache)
	w := warmer.New(src, serverCache, cfg.Warmer.Ceiling)
	notifier := warmer.NewNotifier(cfg.Notify)

	scheduler, err := warmer.NewScheduler(w, notifier, cfg.Warmer)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build warm schedule")
	}

	handler := api.NewHandler(serverCache, readiness(src, serverCache))
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(cfg.Security))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	var sweepOpts []services.SweepOption
	if gc != nil {
		sweepOpts = append(sweepOpts, services.WithGarbageCollector(gc))
	}
	tree.AddDataService(services.NewCacheSweepService(serverCache, cfg.Cache.SweepInterval, sweepOpts...))
	tree.AddJobsService(services.NewWarmSchedulerService(scheduler))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Int("warm_jobs", len(cfg.Warmer.Jobs)).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	var boot sync.WaitGroup
	if *warmOnStart || cfg.Warmer.RunOnStart {
		boot.Add(1)
		go func() {
			defer boot.Done()
			warmAtBoot(ctx, w, notifier, cfg.Warmer)
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	boot.Wait()

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}

// openBackend opens the configured server cache backend. The returned
// collector is nil for the memory backend.
func openBackend(cfg config.CacheConfig) (cache.Backend, services.GarbageCollector, error) {
	if cfg.Backend != "badger" {
		return cache.NewMemoryBackend(), nil, nil
	}
	b, err := cache.OpenBadger(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Str("path", cfg.Path).Msg("Badger cache backend opened")
	return b, b, nil
}

// readiness reports the origin circuit and the cache backend. An open
// circuit makes the server not ready, since cache misses would fail.
func readiness(src *origin.Guarded, sc *servercache.Cache) api.ReadinessFunc {
	return func(ctx context.Context) map[string]bool {
		_, cacheErr := sc.Counts(ctx)
		return map[string]bool{
			"origin": src.State() != "open",
			"cache":  cacheErr == nil,
		}
	}
}

func warmAtBoot(ctx context.Context, w *warmer.Warmer, n warmer.Notifier, cfg config.WarmerConfig) {
	job := warmer.StartupJob(cfg)
	summaries, err := job.Run(ctx, w, n)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Startup warm failed")
		}
		return
	}
	for _, s := range summaries {
		logging.Info().
			Str("run_id", s.RunID).
			Int("items_cached", s.ItemsCached).
			Bool("truncated", s.Truncated()).
			Msg("Startup warm finished")
	}
}

func closeLogged(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Close failed")
	}
}
