// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package metrics exposes package-level prometheus collectors for the
// aggregation pipeline. Collectors are registered via promauto at init time
// and scraped from the /metrics endpoint served by internal/api.
package metrics
