// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package aggregate is the recomputation engine: pure functions that
// derive UserStats and DailyStats from the full session set.
//
// Recomputation, not delta-application, is the source of truth. Each
// function scans every session and rebuilds one entity wholesale, so
// derived state can never drift from the sessions it summarizes. The
// orchestrator deduplicates invocations per batch: one call per touched
// user and one per touched date, regardless of how many events in the
// batch touched them.
package aggregate
