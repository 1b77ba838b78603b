// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package queue

import (
	"sync"

	"github.com/tomtom215/sessionscope/internal/metrics"
)

// DefaultCapacity bounds the queue when the configured capacity is zero or
// negative.
const DefaultCapacity = 10000

// UpdateQueue is a bounded, thread-safe FIFO of pending mutation events.
// It decouples producers from the batch consumer: Enqueue never blocks and
// never fails, and the queue holds its own lock independent of the
// canonical-data mutex.
//
// When the queue is at capacity, Enqueue evicts the oldest event to make
// room. The drop is silent for the producer but counted, so operators can
// see event loss via Stats and the prometheus drop counter.
type UpdateQueue struct {
	mu       sync.Mutex
	events   []UpdateEvent
	capacity int
	enqueued int64
	dropped  int64
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
	Enqueued int64 `json:"enqueued"`
	Dropped  int64 `json:"dropped"`
}

// New creates an UpdateQueue with the given capacity.
func New(capacity int) *UpdateQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &UpdateQueue{
		events:   make([]UpdateEvent, 0, capacity),
		capacity: capacity,
	}
}

// Enqueue appends an event, evicting the oldest entry if at capacity.
// O(1) amortized; pure transport, no payload validation.
func (q *UpdateQueue) Enqueue(event UpdateEvent) {
	q.mu.Lock()
	if len(q.events) >= q.capacity {
		q.events = q.events[1:]
		q.dropped++
		metrics.QueueEventsDropped.Inc()
	}
	q.events = append(q.events, event)
	q.enqueued++
	depth := len(q.events)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
}

// DrainAll atomically returns and clears the current contents in FIFO
// order. Used by both the periodic flush and manual/shutdown flush.
func (q *UpdateQueue) DrainAll() []UpdateEvent {
	q.mu.Lock()
	drained := q.events
	q.events = make([]UpdateEvent, 0, q.capacity)
	q.mu.Unlock()

	metrics.QueueDepth.Set(0)
	return drained
}

// Size returns the current queue length.
func (q *UpdateQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Capacity returns the fixed maximum queue length.
func (q *UpdateQueue) Capacity() int {
	return q.capacity
}

// Dropped returns the total number of events evicted at capacity.
func (q *UpdateQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// GetStats returns a snapshot of queue counters for introspection.
func (q *UpdateQueue) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Size:     len(q.events),
		Capacity: q.capacity,
		Enqueued: q.enqueued,
		Dropped:  q.dropped,
	}
}
