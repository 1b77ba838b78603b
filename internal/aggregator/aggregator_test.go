// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package aggregator

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sessionscope/internal/cache"
	"github.com/tomtom215/sessionscope/internal/models"
	"github.com/tomtom215/sessionscope/internal/queue"
	"github.com/tomtom215/sessionscope/internal/snapshot"
)

// newTestAggregator builds an aggregator over a temp snapshot with a long
// batch interval, so tests drive flushes explicitly via ForceFlush.
func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	store := snapshot.NewStore(filepath.Join(t.TempDir(), "snapshot.json"))
	return New(store, queue.New(1000), cache.New(time.Minute), Config{
		BatchInterval: time.Hour,
		CacheTTL:      time.Minute,
	})
}

// newSeededAggregator persists the given dataset first, so the aggregator
// starts with known canonical data.
func newSeededAggregator(t *testing.T, ds *models.Dataset) *Aggregator {
	t.Helper()
	store := snapshot.NewStore(filepath.Join(t.TempDir(), "snapshot.json"))
	if err := store.Save(ds); err != nil {
		t.Fatalf("Seeding snapshot failed: %v", err)
	}
	return New(store, queue.New(1000), cache.New(time.Minute), Config{
		BatchInterval: time.Hour,
		CacheTTL:      time.Minute,
	})
}

func seedSession(id, userID string, started time.Time, minutes float64) *models.Session {
	ended := started.Add(time.Duration(minutes * float64(time.Minute)))
	s := &models.Session{
		SessionID:     id,
		UserID:        userID,
		Username:      userID,
		StartedAt:     started,
		EndedAt:       &ended,
		EndpointsUsed: map[string]int{},
	}
	s.RecomputeDuration()
	return s
}

func TestQueueToStoreConservation(t *testing.T) {
	agg := newTestAggregator(t)

	const n = 25
	for i := 0; i < n; i++ {
		agg.StartSession(fmt.Sprintf("s%d", i), "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	}

	if agg.SessionCount() != 0 {
		t.Fatalf("Expected no sessions before flush, got %d", agg.SessionCount())
	}

	processed := agg.ForceFlush()
	if processed != n {
		t.Errorf("Expected %d events processed, got %d", n, processed)
	}
	if agg.SessionCount() != n {
		t.Errorf("Expected %d sessions after flush, got %d", n, agg.SessionCount())
	}
}

func TestSessionLifecycleScenario(t *testing.T) {
	agg := newTestAggregator(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.UpdateSession("s1", "/ping", "")
	agg.UpdateSession("s1", "/ping", "")
	agg.UpdateSession("s1", "/ping", "")
	agg.EndSession("s1")

	processed := agg.ForceFlush()
	if processed != 5 {
		t.Fatalf("Expected 5 events processed, got %d", processed)
	}

	export, err := agg.GetExportData(0)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(export.Sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(export.Sessions))
	}

	s := export.Sessions[0]
	if s.ActionsCount != 3 {
		t.Errorf("Expected 3 actions, got %d", s.ActionsCount)
	}
	if s.EndpointsUsed["/ping"] != 3 {
		t.Errorf("Expected /ping count 3, got %v", s.EndpointsUsed)
	}
	if s.EndedAt == nil {
		t.Error("Expected ended_at to be set")
	}
	if s.DurationMinutes < 0 {
		t.Errorf("Expected non-negative duration, got %v", s.DurationMinutes)
	}

	us := export.UserStats["u1"]
	if us == nil || us.TotalSessions != 1 {
		t.Errorf("Expected user stats with 1 session, got %+v", us)
	}

	today := time.Now().UTC().Format(models.DateLayout)
	ds := export.DailyStats[today]
	if ds == nil || ds.TotalSessions != 1 {
		t.Errorf("Expected daily stats for %s with 1 session, got %+v", today, ds)
	}
	if ds != nil && ds.TotalActions != 3 {
		t.Errorf("Expected 3 actions in daily stats, got %d", ds.TotalActions)
	}
}

func TestDurationCorrectness(t *testing.T) {
	started := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	ds := models.NewDataset()
	ds.Sessions = append(ds.Sessions,
		seedSession("s1", "u1", started, 12.5),
		seedSession("s2", "u1", started, 0.25),
	)

	agg := newSeededAggregator(t, ds)
	export, err := agg.GetExportData(0)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	for _, s := range export.Sessions {
		want := models.Round2(s.EndedAt.Sub(s.StartedAt).Minutes())
		if s.DurationMinutes != want {
			t.Errorf("Session %s: expected duration %v, got %v", s.SessionID, want, s.DurationMinutes)
		}
	}
}

func TestAggregateDeterminism(t *testing.T) {
	base := time.Date(2026, 8, 18, 10, 0, 0, 0, time.UTC)
	ds := models.NewDataset()
	for i := 0; i < 10; i++ {
		s := seedSession(fmt.Sprintf("s%d", i), fmt.Sprintf("u%d", i%3), base.Add(time.Duration(i)*7*time.Hour), float64(5*i))
		s.ActionsCount = i
		ds.Sessions = append(ds.Sessions, s)
	}

	agg := newSeededAggregator(t, ds)

	marshalAggregates := func() []byte {
		t.Helper()
		export, err := agg.GetExportData(0)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		users, err := json.Marshal(export.UserStats)
		if err != nil {
			t.Fatal(err)
		}
		days, err := json.Marshal(export.DailyStats)
		if err != nil {
			t.Fatal(err)
		}
		return append(users, days...)
	}

	agg.ReprocessAllSessions()
	first := marshalAggregates()

	agg.ReprocessAllSessions()
	second := marshalAggregates()

	if !bytes.Equal(first, second) {
		t.Error("Expected byte-identical aggregates from consecutive reprocess runs")
	}
}

func TestReprocessCounts(t *testing.T) {
	base := time.Date(2026, 8, 18, 10, 0, 0, 0, time.UTC)
	ds := models.NewDataset()
	ds.Sessions = append(ds.Sessions,
		seedSession("s1", "u1", base, 10),
		seedSession("s2", "u2", base, 10),
		seedSession("s3", "u1", base.Add(24*time.Hour), 10),
	)

	agg := newSeededAggregator(t, ds)
	sessions, users, days := agg.ReprocessAllSessions()

	if sessions != 3 || users != 2 || days != 2 {
		t.Errorf("Expected (3 sessions, 2 users, 2 days), got (%d, %d, %d)", sessions, users, days)
	}
}

func TestCacheCoherence(t *testing.T) {
	agg := newTestAggregator(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.ForceFlush()

	first, err := agg.GetSummaryStats()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	before := agg.CacheStats()
	second, err := agg.GetSummaryStats()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	after := agg.CacheStats()

	if first != second {
		t.Error("Expected the identical cached object within the TTL window")
	}
	if after.Hits != before.Hits+1 {
		t.Errorf("Expected hit counter to increment, got %d -> %d", before.Hits, after.Hits)
	}

	// A flush with nonzero effect must invalidate.
	agg.StartSession("s2", "u2", "Bob", "Pixel", "android", "1.0", "10.0.0.2")
	agg.ForceFlush()

	third, err := agg.GetSummaryStats()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if third == second {
		t.Error("Expected a fresh summary after flush invalidation")
	}
	if third.TotalSessions != 2 {
		t.Errorf("Expected 2 total sessions after second flush, got %d", third.TotalSessions)
	}

	// Cleanup with nonzero effect must invalidate as well.
	removed := agg.CleanupOldSessions(-1) // cutoff in the future removes everything
	if removed != 2 {
		t.Fatalf("Expected cleanup to remove 2 sessions, got %d", removed)
	}
	fourth, err := agg.GetSummaryStats()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if fourth.TotalSessions != 0 {
		t.Errorf("Expected 0 sessions after cleanup, got %d", fourth.TotalSessions)
	}
}

func TestRetentionCorrectness(t *testing.T) {
	now := time.Now().UTC()
	ds := models.NewDataset()
	old1 := seedSession("old1", "u1", now.AddDate(0, 0, -40), 10)
	old2 := seedSession("old2", "u2", now.AddDate(0, 0, -31), 10)
	fresh1 := seedSession("fresh1", "u1", now.AddDate(0, 0, -5), 10)
	fresh2 := seedSession("fresh2", "u3", now.Add(-time.Hour), 10)
	ds.Sessions = append(ds.Sessions, old1, old2, fresh1, fresh2)

	agg := newSeededAggregator(t, ds)

	removed := agg.CleanupOldSessions(30)
	if removed != 2 {
		t.Fatalf("Expected 2 sessions removed, got %d", removed)
	}

	export, err := agg.GetExportData(0)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(export.Sessions) != 2 {
		t.Fatalf("Expected 2 surviving sessions, got %d", len(export.Sessions))
	}

	survivors := map[string]*models.Session{}
	for _, s := range export.Sessions {
		survivors[s.SessionID] = s
	}
	if survivors["fresh1"] == nil || survivors["fresh2"] == nil {
		t.Errorf("Expected fresh sessions to survive, got %v", survivors)
	}

	// Survivors are untouched byte for byte.
	for _, want := range []*models.Session{fresh1, fresh2} {
		got := survivors[want.SessionID]
		wantJSON, _ := json.Marshal(want)
		gotJSON, _ := json.Marshal(got)
		if !bytes.Equal(wantJSON, gotJSON) {
			t.Errorf("Session %s changed during cleanup:\n%s\n%s", want.SessionID, wantJSON, gotJSON)
		}
	}
}

func TestConcurrentUpdatesNoLostWrites(t *testing.T) {
	agg := newTestAggregator(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.ForceFlush()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			agg.UpdateSession("s1", fmt.Sprintf("/endpoint/%d", n), "")
		}(i)
	}
	wg.Wait()

	agg.ForceFlush()

	export, err := agg.GetExportData(0)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	s := export.Sessions[0]
	if s.ActionsCount != 50 {
		t.Errorf("Expected 50 actions, got %d", s.ActionsCount)
	}
	if len(s.EndpointsUsed) != 50 {
		t.Errorf("Expected 50 distinct endpoints, got %d", len(s.EndpointsUsed))
	}
}

func TestDuplicateSessionIDLastWriteWins(t *testing.T) {
	agg := newTestAggregator(t)

	agg.StartSession("dup", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.ForceFlush()
	agg.StartSession("dup", "u1", "Alice", "iPad", "ios", "1.1", "10.0.0.1")
	agg.ForceFlush()

	agg.UpdateSession("dup", "/ping", "")
	agg.ForceFlush()

	export, err := agg.GetExportData(0)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(export.Sessions) != 2 {
		t.Fatalf("Expected both records to remain, got %d", len(export.Sessions))
	}

	// The most recently appended record receives the update.
	newest := export.Sessions[1]
	if newest.DeviceInfo != "iPad" || newest.ActionsCount != 1 {
		t.Errorf("Expected newest record to take the update, got %+v", newest)
	}
	if export.Sessions[0].ActionsCount != 0 {
		t.Errorf("Expected oldest record untouched, got %+v", export.Sessions[0])
	}
}

func TestUpdateForUnknownSessionIsDropped(t *testing.T) {
	agg := newTestAggregator(t)

	agg.UpdateSession("ghost", "/ping", "")
	agg.EndSession("ghost")
	processed := agg.ForceFlush()

	if processed != 2 {
		t.Errorf("Expected 2 events drained, got %d", processed)
	}
	if agg.SessionCount() != 0 {
		t.Errorf("Expected no sessions to be created, got %d", agg.SessionCount())
	}
}

func TestAddScreenVisitBypassesQueue(t *testing.T) {
	agg := newTestAggregator(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.ForceFlush()

	agg.AddScreenVisit("s1", "home")
	agg.AddScreenVisit("s1", "home")
	agg.AddScreenVisit("s1", "settings")

	// Visible immediately, no flush required.
	export, err := agg.GetExportData(0)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	screens := export.Sessions[0].ScreensVisited
	if len(screens) != 2 {
		t.Errorf("Expected 2 distinct screens, got %v", screens)
	}
}

func TestExportDaysFilter(t *testing.T) {
	now := time.Now().UTC()
	ds := models.NewDataset()
	ds.Sessions = append(ds.Sessions,
		seedSession("old", "u1", now.AddDate(0, 0, -20), 10),
		seedSession("fresh", "u2", now.Add(-2*time.Hour), 10),
	)

	agg := newSeededAggregator(t, ds)
	agg.ReprocessAllSessions()

	export, err := agg.GetExportData(7)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(export.Sessions) != 1 || export.Sessions[0].SessionID != "fresh" {
		t.Errorf("Expected only the fresh session, got %+v", export.Sessions)
	}
	if export.Days != 7 {
		t.Errorf("Expected Days=7, got %d", export.Days)
	}

	oldDate := now.AddDate(0, 0, -20).Format(models.DateLayout)
	if _, present := export.DailyStats[oldDate]; present {
		t.Error("Expected old daily stats to be filtered out")
	}

	full, err := agg.GetExportData(0)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(full.Sessions) != 2 {
		t.Errorf("Expected full export to include everything, got %d", len(full.Sessions))
	}
}

func TestShutdownPerformsFinalFlush(t *testing.T) {
	agg := newTestAggregator(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.Shutdown()

	if agg.Running() {
		t.Error("Expected aggregator to stop running")
	}
	if agg.SessionCount() != 1 {
		t.Errorf("Expected final flush to apply queued events, got %d sessions", agg.SessionCount())
	}

	// Second shutdown is a no-op.
	agg.Shutdown()
}

func TestSnapshotPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := snapshot.NewStore(path)

	agg := New(store, queue.New(100), cache.New(time.Minute), Config{BatchInterval: time.Hour})
	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.ForceFlush()

	reopened := New(snapshot.NewStore(path), queue.New(100), cache.New(time.Minute), Config{BatchInterval: time.Hour})
	if reopened.SessionCount() != 1 {
		t.Errorf("Expected 1 session after restart, got %d", reopened.SessionCount())
	}
}
