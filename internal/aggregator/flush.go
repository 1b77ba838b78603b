// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package aggregator

import (
	"context"
	"time"

	"github.com/tomtom215/sessionscope/internal/aggregate"
	"github.com/tomtom215/sessionscope/internal/logging"
	"github.com/tomtom215/sessionscope/internal/metrics"
	"github.com/tomtom215/sessionscope/internal/models"
	"github.com/tomtom215/sessionscope/internal/queue"
)

// Serve implements suture.Service: the background flush loop. It wakes on
// the batch interval, skips empty cycles, and treats every failure as
// recoverable — a dead worker silently stops all future aggregation, so
// the loop only exits on context cancellation, after one final flush.
func (a *Aggregator) Serve(ctx context.Context) error {
	ticker := time.NewTicker(a.batchInterval)
	defer ticker.Stop()

	logging.Info().
		Dur("interval", a.batchInterval).
		Msg("Aggregator flush loop started")

	for {
		select {
		case <-ctx.Done():
			processed := a.safeFlush()
			logging.Info().
				Int("events", processed).
				Msg("Aggregator flush loop stopped")
			return ctx.Err()

		case <-ticker.C:
			if a.queue.Size() == 0 {
				continue
			}
			a.safeFlush()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (a *Aggregator) String() string {
	return "aggregator"
}

// safeFlush runs one flush cycle, converting panics from poison events
// into logged errors so the worker survives.
func (a *Aggregator) safeFlush() (processed int) {
	defer func() {
		if r := recover(); r != nil {
			metrics.FlushErrors.Inc()
			logging.Error().
				Interface("panic", r).
				Msg("Flush cycle panicked, continuing to next cycle")
		}
	}()

	return a.flush()
}

// flush drains the queue and applies the batch under the data mutex.
// Returns the number of events processed.
func (a *Aggregator) flush() int {
	events := a.queue.DrainAll()
	if len(events) == 0 {
		return 0
	}

	start := time.Now()

	a.mu.Lock()
	a.applyBatchLocked(events)
	a.persistLocked()
	a.mu.Unlock()

	a.cache.Clear()

	metrics.FlushDuration.Observe(time.Since(start).Seconds())
	metrics.FlushBatchSize.Observe(float64(len(events)))

	logging.Debug().
		Int("events", len(events)).
		Dur("took", time.Since(start)).
		Msg("Batch applied")

	return len(events)
}

// applyBatchLocked partitions drained events into new-session inserts and
// per-session-id update lists, applies them in order, and recomputes
// aggregates once per touched user and once per touched date — batch-level
// deduplication by touched-entity set, not once per event. Callers must
// hold the data mutex.
func (a *Aggregator) applyBatchLocked(events []queue.UpdateEvent) {
	var inserts []*models.Session
	updates := make(map[string][]queue.UpdateEvent)
	updateOrder := make([]string, 0)

	for _, ev := range events {
		switch ev.Type {
		case queue.EventStartSession:
			if ev.Session != nil {
				inserts = append(inserts, ev.Session)
			}
		case queue.EventUpdateSession, queue.EventEndSession:
			if _, seen := updates[ev.SessionID]; !seen {
				updateOrder = append(updateOrder, ev.SessionID)
			}
			updates[ev.SessionID] = append(updates[ev.SessionID], ev)
		default:
			logging.Warn().
				Str("type", string(ev.Type)).
				Str("event_id", ev.EventID).
				Msg("Discarding event of unknown type")
		}
	}

	touchedUsers := make(map[string]struct{})
	touchedDates := make(map[string]struct{})

	for _, session := range inserts {
		if session.EndpointsUsed == nil {
			session.EndpointsUsed = make(map[string]int)
		}
		a.data.Sessions = append(a.data.Sessions, session)
		touchedUsers[session.UserID] = struct{}{}
		touchedDates[session.Date()] = struct{}{}
	}

	for _, sessionID := range updateOrder {
		session := a.findSessionLocked(sessionID)
		if session == nil {
			logging.Debug().
				Str("session_id", sessionID).
				Int("events", len(updates[sessionID])).
				Msg("Dropping updates for unknown session")
			continue
		}

		for _, ev := range updates[sessionID] {
			applyUpdateEvent(session, ev)
		}

		touchedUsers[session.UserID] = struct{}{}
		touchedDates[session.Date()] = struct{}{}
	}

	a.recomputeLocked(touchedUsers, touchedDates)

	metrics.SessionsTotal.Set(float64(len(a.data.Sessions)))
}

// applyUpdateEvent mutates a session record in place for one event,
// recomputing the derived duration after every mutation.
func applyUpdateEvent(session *models.Session, ev queue.UpdateEvent) {
	switch ev.Type {
	case queue.EventUpdateSession:
		if session.EndpointsUsed == nil {
			session.EndpointsUsed = make(map[string]int)
		}
		session.EndpointsUsed[ev.Endpoint]++
		session.ActionsCount++
	case queue.EventEndSession:
		ended := ev.Timestamp
		session.EndedAt = &ended
	}

	session.RecomputeDuration()
}

// recomputeLocked runs the aggregation engine once per touched user and
// once per touched date, replacing each derived entry wholesale. Entities
// left with no matching sessions are removed. Callers must hold the data
// mutex.
func (a *Aggregator) recomputeLocked(userIDs, dates map[string]struct{}) {
	for userID := range userIDs {
		if stats := aggregate.ForUser(a.data.Sessions, userID); stats != nil {
			a.data.UserStats[userID] = stats
		} else {
			delete(a.data.UserStats, userID)
		}
	}

	for date := range dates {
		if stats := aggregate.ForDate(a.data.Sessions, date); stats != nil {
			a.data.DailyStats[date] = stats
		} else {
			delete(a.data.DailyStats, date)
		}
	}
}
