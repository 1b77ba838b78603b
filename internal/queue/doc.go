// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package queue provides the bounded update queue that sits between the
// producer-side event API and the background batch consumer.
//
// Design choices (deliberate, documented trade-offs):
//   - Enqueue never blocks: at capacity the oldest event is evicted rather
//     than applying backpressure to producers. Drops are counted and
//     exported, not hidden.
//   - The queue is pure transport. Event contents are not validated here;
//     the batch-apply path owns all interpretation.
package queue
