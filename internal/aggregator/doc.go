// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package aggregator is the orchestrator at the center of Sessionscope.
//
// It owns four collaborators: the canonical Dataset, the bounded update
// queue, the read-query TTL cache, and the snapshot store. Producers call
// cheap enqueue methods; a single supervised background worker drains the
// queue on a fixed interval, mutates the dataset under one mutex, re-runs
// the aggregation engine for every entity the batch touched, persists a
// full snapshot, and clears the cache. Readers consult the cache first and
// fall back to a locked on-demand scan.
//
// Durability is bounded-loss by design: events sitting in the queue when
// the process dies are gone. ForceFlush is the durability point for
// callers that need one.
package aggregator
