// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package api provides the read-only HTTP monitoring surface: export and
// summary read-queries, cache/queue introspection, health, and prometheus
// metrics. Event producers are in-process collaborators of the aggregator
// and have no HTTP representation here.
package api
