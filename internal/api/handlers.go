// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sessionscope/internal/aggregator"
	"github.com/tomtom215/sessionscope/internal/logging"
	"github.com/tomtom215/sessionscope/internal/queue"
)

// Handler serves the read-only monitoring surface. Producers never go
// through HTTP; they call the aggregator in-process.
type Handler struct {
	agg       *aggregator.Aggregator
	startedAt time.Time
	version   string
}

// NewHandler creates the monitoring handler.
func NewHandler(agg *aggregator.Aggregator, version string) *Handler {
	return &Handler{
		agg:       agg,
		startedAt: time.Now(),
		version:   version,
	}
}

// Export handles GET /api/v1/export?days=N. Omitted or non-positive days
// returns the whole store.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	export, err := h.agg.GetExportData(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		logging.Error().Err(err).Msg("Export query failed")
		return
	}

	writeJSON(w, http.StatusOK, export)
}

// Summary handles GET /api/v1/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.agg.GetSummaryStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary failed")
		logging.Error().Err(err).Msg("Summary query failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// runtimeStats is the introspection payload behind GET /api/v1/stats.
type runtimeStats struct {
	Sessions     int         `json:"sessions"`
	Cache        cacheStats  `json:"cache"`
	Queue        queue.Stats `json:"queue"`
	CacheHitRate float64     `json:"cache_hit_rate"`
}

// cacheStats mirrors cache.Stats without its internal mutex.
type cacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Invalidations int64 `json:"invalidations"`
	TotalKeys     int64 `json:"total_keys"`
}

// Stats handles GET /api/v1/stats: cache and queue counters plus the
// canonical session count, for operational visibility.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	cs := h.agg.CacheStats()
	total := cs.Hits + cs.Misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(cs.Hits) / float64(total) * 100.0
	}

	writeJSON(w, http.StatusOK, runtimeStats{
		Sessions: h.agg.SessionCount(),
		Cache: cacheStats{
			Hits:          cs.Hits,
			Misses:        cs.Misses,
			Sets:          cs.Sets,
			Invalidations: cs.Invalidations,
			TotalKeys:     cs.TotalKeys,
		},
		Queue:        h.agg.QueueStats(),
		CacheHitRate: hitRate,
	})
}

// Flush handles POST /api/v1/flush: a synchronous drain-and-apply, the
// operational escape hatch when waiting a batch interval is not an option.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	processed := h.agg.ForceFlush()
	writeJSON(w, http.StatusOK, map[string]int{"events_processed": processed})
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.agg.Running() {
		status = "shutting_down"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"version":        h.version,
		"uptime_seconds": time.Since(h.startedAt).Seconds(),
	})
}

// writeJSON serializes v with goccy/go-json and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes a JSON error payload.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
