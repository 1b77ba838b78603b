// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/sessionscope/internal/aggregator"
	"github.com/tomtom215/sessionscope/internal/api"
	"github.com/tomtom215/sessionscope/internal/cache"
	"github.com/tomtom215/sessionscope/internal/config"
	"github.com/tomtom215/sessionscope/internal/logging"
	"github.com/tomtom215/sessionscope/internal/queue"
	"github.com/tomtom215/sessionscope/internal/snapshot"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	instanceID := uuid.New().String()[:8]
	logging.SetLogger(logging.With().Str("instance", instanceID).Logger())

	logging.Info().
		Str("version", Version).
		Str("snapshot", cfg.Snapshot.Path).
		Dur("batch_interval", cfg.Aggregator.BatchInterval).
		Msg("Sessionscope starting")

	store := snapshot.NewStore(cfg.Snapshot.Path)
	updateQueue := queue.New(cfg.Aggregator.QueueCapacity)
	readCache := cache.New(cfg.Aggregator.CacheTTL)

	agg := aggregator.New(store, updateQueue, readCache, aggregator.Config{
		BatchInterval: cfg.Aggregator.BatchInterval,
		CacheTTL:      cfg.Aggregator.CacheTTL,
	})

	handler := api.NewHandler(agg, Version)
	router := api.NewRouter(handler, cfg.Server.Timeout)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpService := api.NewService(addr, router, cfg.Server.Timeout)

	// Supervise the flush worker and the HTTP server together; supervisor
	// events flow to zerolog through the slog adapter.
	sutureHandler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	root := suture.New("sessionscope", suture.Spec{
		EventHook: sutureHandler.MustHook(),
	})
	root.Add(agg)
	root.Add(httpService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := root.ServeBackground(ctx)

	logging.Info().Str("addr", addr).Msg("Monitoring surface listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor stopped with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor failed: %w", err)
		}
	}

	// The supervisor already flushed on cancellation; Shutdown is
	// idempotent and catches anything enqueued during teardown.
	agg.Shutdown()

	logging.Info().Msg("Sessionscope stopped")
	return nil
}
