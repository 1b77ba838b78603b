// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package main is the entry point for the Sessionscope server.
//
// Sessionscope ingests per-user session usage events from an application,
// batches them to minimize I/O, maintains derived per-user and per-day
// aggregates, and serves cached read-queries to a monitoring surface.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered load (defaults, config.yaml, env)
//  2. Logging: global zerolog logger, JSON or console format
//  3. Snapshot store: loads the canonical dataset (missing or corrupt
//     snapshots degrade to an empty dataset; the server always starts)
//  4. Aggregator: update queue, read cache, background flush worker
//  5. HTTP: read-only monitoring surface with prometheus metrics
//
// The flush worker and HTTP server run under a suture supervisor; either
// one crashing is restarted with backoff rather than taking the process
// down.
//
// # Configuration
//
// Environment variables (highest priority):
//
//	SNAPSHOT_PATH   snapshot file location (default /data/sessionscope.json)
//	BATCH_INTERVAL  flush period, e.g. 30s
//	QUEUE_CAPACITY  bounded queue size, oldest evicted at capacity
//	CACHE_TTL       read-query cache expiry, e.g. 5m
//	HTTP_HOST       monitoring bind host
//	HTTP_PORT       monitoring bind port (default 3857)
//	LOG_LEVEL       trace/debug/info/warn/error
//	LOG_FORMAT      json or console
//
// # Signal handling
//
// SIGINT and SIGTERM trigger cooperative shutdown: the supervisor stops
// both services, the flush worker drains the queue one final time, and
// the HTTP server finishes in-flight requests. Because the worker only
// observes cancellation between cycles, shutdown can take up to one batch
// interval.
package main
