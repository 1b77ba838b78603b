// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sessionscope/internal/aggregator"
	"github.com/tomtom215/sessionscope/internal/cache"
	"github.com/tomtom215/sessionscope/internal/models"
	"github.com/tomtom215/sessionscope/internal/queue"
	"github.com/tomtom215/sessionscope/internal/snapshot"
)

func newTestServer(t *testing.T) (*aggregator.Aggregator, http.Handler) {
	t.Helper()
	store := snapshot.NewStore(filepath.Join(t.TempDir(), "snapshot.json"))
	agg := aggregator.New(store, queue.New(100), cache.New(time.Minute), aggregator.Config{
		BatchInterval: time.Hour,
		CacheTTL:      time.Minute,
	})
	handler := NewHandler(agg, "test")
	return agg, NewRouter(handler, 10*time.Second)
}

func doRequest(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestSummaryEndpoint(t *testing.T) {
	agg, router := newTestServer(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.ForceFlush()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var summary models.SummaryStats
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.TotalSessions != 1 || summary.TotalUsers != 1 {
		t.Errorf("Expected 1 session and 1 user, got %+v", summary)
	}
}

func TestExportEndpoint(t *testing.T) {
	agg, router := newTestServer(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.UpdateSession("s1", "/ping", "")
	agg.ForceFlush()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var export models.ExportData
	if err := json.Unmarshal(rec.Body.Bytes(), &export); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	if len(export.Sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(export.Sessions))
	}
	if export.Sessions[0].EndpointsUsed["/ping"] != 1 {
		t.Errorf("Expected /ping count 1, got %+v", export.Sessions[0].EndpointsUsed)
	}
}

func TestExportEndpointDaysValidation(t *testing.T) {
	_, router := newTestServer(t)

	for _, target := range []string{
		"/api/v1/export?days=abc",
		"/api/v1/export?days=-1",
	} {
		rec := doRequest(t, router, http.MethodGet, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/export?days=7")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid days, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	agg, router := newTestServer(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.ForceFlush()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var stats runtimeStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Sessions != 1 {
		t.Errorf("Expected 1 session, got %d", stats.Sessions)
	}
	if stats.Queue.Enqueued != 1 {
		t.Errorf("Expected 1 enqueued event, got %d", stats.Queue.Enqueued)
	}
}

func TestFlushEndpoint(t *testing.T) {
	agg, router := newTestServer(t)

	agg.StartSession("s1", "u1", "Alice", "iPhone", "ios", "1.0", "10.0.0.1")
	agg.StartSession("s2", "u2", "Bob", "Pixel", "android", "1.0", "10.0.0.2")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/flush")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode flush response: %v", err)
	}
	if body["events_processed"] != 2 {
		t.Errorf("Expected 2 events processed, got %d", body["events_processed"])
	}
	if agg.SessionCount() != 2 {
		t.Errorf("Expected 2 sessions after flush, got %d", agg.SessionCount())
	}
}

func TestHealthEndpoint(t *testing.T) {
	agg, router := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("Expected version test, got %v", body["version"])
	}

	agg.Shutdown()

	rec = doRequest(t, router, http.MethodGet, "/api/v1/health")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "shutting_down" {
		t.Errorf("Expected shutting_down after shutdown, got %v", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from metrics endpoint, got %d", rec.Code)
	}
}
