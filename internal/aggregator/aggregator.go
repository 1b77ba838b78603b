// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package aggregator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/sessionscope/internal/cache"
	"github.com/tomtom215/sessionscope/internal/logging"
	"github.com/tomtom215/sessionscope/internal/metrics"
	"github.com/tomtom215/sessionscope/internal/models"
	"github.com/tomtom215/sessionscope/internal/queue"
	"github.com/tomtom215/sessionscope/internal/snapshot"
)

// Cache keys for the two read-queries. The write path invalidates the
// whole cache, so keys never need targeted eviction.
const (
	summaryCacheKey   = "summary_stats"
	exportAllCacheKey = "export_all"
)

// Config holds the aggregator's tunables.
type Config struct {
	// BatchInterval is the period between background flush cycles.
	BatchInterval time.Duration

	// CacheTTL is the expiry applied to cached read-query results.
	CacheTTL time.Duration
}

// Aggregator owns the canonical dataset, the update queue, the read cache,
// and the snapshot store, and exposes the producer/reader API.
//
// Concurrency model: producers enqueue without touching the data mutex
// (the queue has its own lock). A single mutex guards the canonical
// session list and derived aggregates; it is held for the duration of
// batch-apply, AddScreenVisit, CleanupOldSessions, ReprocessAllSessions,
// and the recompute path of the read-queries on cache miss. Because
// recomputation scans the full session set, lock hold time grows with
// total session count.
type Aggregator struct {
	mu    sync.Mutex
	data  *models.Dataset
	queue *queue.UpdateQueue
	cache *cache.Cache
	store *snapshot.Store

	batchInterval time.Duration
	cacheTTL      time.Duration

	running atomic.Bool
}

// New creates an Aggregator and loads the canonical dataset from the
// snapshot store. Load failures degrade to an empty dataset inside the
// store, so construction always succeeds into a usable state.
func New(store *snapshot.Store, q *queue.UpdateQueue, c *cache.Cache, cfg Config) *Aggregator {
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	a := &Aggregator{
		data:          store.Load(),
		queue:         q,
		cache:         c,
		store:         store,
		batchInterval: cfg.BatchInterval,
		cacheTTL:      cfg.CacheTTL,
	}
	a.running.Store(true)

	metrics.SessionsTotal.Set(float64(len(a.data.Sessions)))

	return a
}

// StartSession enqueues a new-session event. Never fails synchronously and
// returns immediately; the session becomes visible to readers after the
// next batch flush.
func (a *Aggregator) StartSession(sessionID, userID, username, deviceInfo, platform, appVersion, ipAddress string) {
	session := &models.Session{
		SessionID:     sessionID,
		UserID:        userID,
		Username:      username,
		DeviceInfo:    deviceInfo,
		Platform:      platform,
		AppVersion:    appVersion,
		IPAddress:     ipAddress,
		StartedAt:     time.Now().UTC(),
		EndpointsUsed: make(map[string]int),
	}

	a.queue.Enqueue(queue.NewStartEvent(session))
}

// UpdateSession enqueues an endpoint-hit event for an existing session.
// An empty action defaults to "API_CALL".
func (a *Aggregator) UpdateSession(sessionID, endpoint, action string) {
	a.queue.Enqueue(queue.NewUpdateEvent(sessionID, endpoint, action))
}

// EndSession enqueues a session-close event carrying the current time.
func (a *Aggregator) EndSession(sessionID string) {
	a.queue.Enqueue(queue.NewEndEvent(sessionID))
}

// AddScreenVisit bypasses the queue and writes under the data mutex
// directly. This is a deliberate special case for UX-latency-sensitive
// writes: the screens_visited field can run ahead of the batch-consistent
// view of the rest of the record. Documented inconsistency, not a bug.
func (a *Aggregator) AddScreenVisit(sessionID, screenName string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if session := a.findSessionLocked(sessionID); session != nil {
		session.VisitScreen(screenName)
	}
}

// GetExportData returns the dataset filtered to sessions started within
// the last N days, or the whole store when days <= 0. Results are cached
// under export_all / export_<days>.
func (a *Aggregator) GetExportData(days int) (*models.ExportData, error) {
	key := exportAllCacheKey
	if days > 0 {
		key = fmt.Sprintf("export_%d", days)
	}

	value, err := a.cache.GetOrCompute(key, a.cacheTTL, func() (interface{}, error) {
		return a.computeExportData(days), nil
	})
	if err != nil {
		return nil, err
	}

	export, ok := value.(*models.ExportData)
	if !ok {
		return nil, fmt.Errorf("unexpected cache entry type %T for key %s", value, key)
	}
	return export, nil
}

// computeExportData takes the data mutex and builds a deep-copied export.
func (a *Aggregator) computeExportData(days int) *models.ExportData {
	a.mu.Lock()
	defer a.mu.Unlock()

	export := &models.ExportData{
		Sessions:    make([]*models.Session, 0, len(a.data.Sessions)),
		DailyStats:  make(map[string]*models.DailyStats, len(a.data.DailyStats)),
		UserStats:   make(map[string]*models.UserStats, len(a.data.UserStats)),
		GeneratedAt: time.Now().UTC(),
	}

	if days <= 0 {
		for _, s := range a.data.Sessions {
			export.Sessions = append(export.Sessions, s.Clone())
		}
		for date, ds := range a.data.DailyStats {
			export.DailyStats[date] = ds.Clone()
		}
	} else {
		export.Days = days
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		cutoffDate := cutoff.Format(models.DateLayout)

		for _, s := range a.data.Sessions {
			if s.StartedAt.Before(cutoff) {
				continue
			}
			export.Sessions = append(export.Sessions, s.Clone())
		}
		for date, ds := range a.data.DailyStats {
			if date < cutoffDate {
				continue
			}
			export.DailyStats[date] = ds.Clone()
		}
	}

	for userID, us := range a.data.UserStats {
		export.UserStats[userID] = us.Clone()
	}

	return export
}

// GetSummaryStats returns headline statistics: active-user counts over
// 7-day and 30-day windows by LastSeen, and the 7-day session count and
// average duration. Cached under summary_stats.
func (a *Aggregator) GetSummaryStats() (*models.SummaryStats, error) {
	value, err := a.cache.GetOrCompute(summaryCacheKey, a.cacheTTL, func() (interface{}, error) {
		return a.computeSummaryStats(), nil
	})
	if err != nil {
		return nil, err
	}

	summary, ok := value.(*models.SummaryStats)
	if !ok {
		return nil, fmt.Errorf("unexpected cache entry type %T for key %s", value, summaryCacheKey)
	}
	return summary, nil
}

// computeSummaryStats takes the data mutex and scans the canonical data.
func (a *Aggregator) computeSummaryStats() *models.SummaryStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	cutoff7d := now.AddDate(0, 0, -7)
	cutoff30d := now.AddDate(0, 0, -30)

	summary := &models.SummaryStats{
		TotalSessions: len(a.data.Sessions),
		TotalUsers:    len(a.data.UserStats),
		GeneratedAt:   now,
	}

	for _, us := range a.data.UserStats {
		if us.LastSeen.After(cutoff7d) {
			summary.ActiveUsers7d++
		}
		if us.LastSeen.After(cutoff30d) {
			summary.ActiveUsers30d++
		}
	}

	var total7d float64
	for _, s := range a.data.Sessions {
		if s.StartedAt.Before(cutoff7d) {
			continue
		}
		summary.Sessions7d++
		total7d += s.DurationMinutes
	}
	if summary.Sessions7d > 0 {
		summary.AvgSessionDuration7d = models.Round2(total7d / float64(summary.Sessions7d))
	}

	return summary
}

// ForceFlush synchronously drains the queue, applies the batch, persists,
// and invalidates the cache. Returns the number of events processed. Used
// by shutdown and by operational tooling to make effects observable
// without waiting for the timer.
func (a *Aggregator) ForceFlush() int {
	return a.flush()
}

// CleanupOldSessions removes sessions whose StartedAt is older than
// now - daysToKeep days, persisting and invalidating the cache when any
// were removed. Returns the count removed.
//
// Derived aggregates for the removed sessions are NOT recomputed here;
// they stay stale until ReprocessAllSessions runs. Known limitation,
// kept deliberately cheap.
func (a *Aggregator) CleanupOldSessions(daysToKeep int) int {
	cutoff := time.Now().UTC().AddDate(0, 0, -daysToKeep)

	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.data.Sessions[:0]
	removed := 0
	for _, s := range a.data.Sessions {
		if s.StartedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, s)
	}

	if removed == 0 {
		return 0
	}

	a.data.Sessions = kept
	a.persistLocked()
	a.cache.Clear()

	metrics.SessionsCleaned.Add(float64(removed))
	metrics.SessionsTotal.Set(float64(len(a.data.Sessions)))

	logging.Info().
		Int("removed", removed).
		Int("remaining", len(a.data.Sessions)).
		Int("days_to_keep", daysToKeep).
		Msg("Retention cleanup removed old sessions")

	return removed
}

// ReprocessAllSessions clears all derived aggregates and recomputes
// UserStats and DailyStats for every session from scratch. Repair and
// migration tool; also the documented fix for post-cleanup staleness.
// Returns the counts of sessions processed, users, and days.
func (a *Aggregator) ReprocessAllSessions() (sessions, users, days int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	userIDs := make(map[string]struct{})
	dates := make(map[string]struct{})
	for _, s := range a.data.Sessions {
		userIDs[s.UserID] = struct{}{}
		dates[s.Date()] = struct{}{}
	}

	a.data.UserStats = make(map[string]*models.UserStats, len(userIDs))
	a.data.DailyStats = make(map[string]*models.DailyStats, len(dates))
	a.recomputeLocked(userIDs, dates)

	a.persistLocked()
	a.cache.Clear()

	logging.Info().
		Int("sessions", len(a.data.Sessions)).
		Int("users", len(userIDs)).
		Int("days", len(dates)).
		Msg("Reprocessed all sessions")

	return len(a.data.Sessions), len(userIDs), len(dates)
}

// Shutdown clears the running flag and performs one final flush so queued
// events are not lost across a clean stop.
func (a *Aggregator) Shutdown() {
	if !a.running.CompareAndSwap(true, false) {
		return
	}

	processed := a.ForceFlush()
	logging.Info().
		Int("events", processed).
		Msg("Aggregator shut down after final flush")
}

// Running reports whether the aggregator accepts work.
func (a *Aggregator) Running() bool {
	return a.running.Load()
}

// CacheStats exposes cache counters for the monitoring surface.
func (a *Aggregator) CacheStats() cache.Stats {
	return a.cache.GetStats()
}

// QueueStats exposes queue counters for the monitoring surface.
func (a *Aggregator) QueueStats() queue.Stats {
	return a.queue.GetStats()
}

// SessionCount returns the current canonical session count.
func (a *Aggregator) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.data.Sessions)
}

// findSessionLocked locates a session by ID, scanning from the end so the
// most recently appended record wins on duplicate IDs. Callers must hold
// the data mutex.
func (a *Aggregator) findSessionLocked(sessionID string) *models.Session {
	for i := len(a.data.Sessions) - 1; i >= 0; i-- {
		if a.data.Sessions[i].SessionID == sessionID {
			return a.data.Sessions[i]
		}
	}
	return nil
}

// persistLocked saves a snapshot, logging and swallowing failures: the
// in-memory state stays correct but un-persisted until the next
// successful flush. Callers must hold the data mutex.
func (a *Aggregator) persistLocked() {
	if err := a.store.Save(a.data); err != nil {
		logging.Error().
			Err(err).
			Str("path", a.store.Path()).
			Msg("Snapshot save failed, continuing with in-memory state")
	}
}
