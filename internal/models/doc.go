// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package models defines the canonical data types shared across
// Sessionscope: the Session record, the derived UserStats and DailyStats
// aggregates, the Dataset snapshot document, and the read-query payloads.
//
// The central invariant: UserStats and DailyStats are always a
// deterministic pure function of the current session set. They are replaced
// wholesale by the aggregation engine, never adjusted incrementally, so
// they cannot drift from the sessions they summarize.
package models
