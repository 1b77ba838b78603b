// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package cache implements the TTL cache used to memoize read-queries.
//
// Expiry is checked on read, so an entry past its TTL is indistinguishable
// from an absent one. The aggregator invalidates the whole cache after any
// write that changes the canonical dataset; per-key invalidation exists but
// the write path deliberately uses coarse Clear semantics.
package cache
