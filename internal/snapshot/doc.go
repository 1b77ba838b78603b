// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package snapshot persists the canonical dataset as a single JSON
// document, replaced wholesale on each flush. Durability is best-effort by
// design: the system accepts bounded data loss on crash between batch
// intervals, and callers needing a durability point use ForceFlush and
// check its outcome.
package snapshot
