// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the aggregation pipeline:
// - Update queue depth and drop counts
// - Batch flush timing and size
// - Read-query cache efficiency
// - Canonical store size and snapshot persistence errors

var (
	// Update Queue Metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessionscope_queue_depth",
			Help: "Current number of pending events in the update queue",
		},
	)

	QueueEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_queue_events_dropped_total",
			Help: "Total number of events evicted because the update queue was at capacity",
		},
	)

	// Batch Flush Metrics
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sessionscope_flush_duration_seconds",
			Help:    "Duration of batch-apply flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sessionscope_flush_batch_size",
			Help:    "Number of events applied per batch flush",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)

	FlushErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_flush_errors_total",
			Help: "Total number of batch flush cycles that logged an error",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_cache_hits_total",
			Help: "Total number of read-query cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_cache_misses_total",
			Help: "Total number of read-query cache misses",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_cache_invalidations_total",
			Help: "Total number of cache entries removed by invalidation or expiry",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessionscope_cache_entries",
			Help: "Current number of cached read-query results",
		},
	)

	// Canonical Store Metrics
	SessionsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessionscope_sessions_total",
			Help: "Current number of sessions in the canonical store",
		},
	)

	SessionsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_sessions_cleaned_total",
			Help: "Total number of sessions removed by retention cleanup",
		},
	)

	// Snapshot Persistence Metrics
	SnapshotSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_snapshot_saves_total",
			Help: "Total number of successful snapshot writes",
		},
	)

	SnapshotSaveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessionscope_snapshot_save_errors_total",
			Help: "Total number of failed snapshot writes (including breaker rejections)",
		},
	)
)
