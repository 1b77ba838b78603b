// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package models

import (
	"time"
)

// UserStats is the fully derived per-user aggregate. It is recomputed from
// scratch whenever any of the user's sessions changes; there is no
// incremental counter state that can drift.
type UserStats struct {
	UserID             string    `json:"user_id"`
	Username           string    `json:"username"`
	FirstSeen          time.Time `json:"first_seen"`
	LastSeen           time.Time `json:"last_seen"`
	TotalSessions      int       `json:"total_sessions"`
	TotalTimeMinutes   float64   `json:"total_time_minutes"`
	AvgSessionDuration float64   `json:"avg_session_duration"`
	DeviceHistory      []string  `json:"device_history,omitempty"`
}

// DailyStats is the fully derived per-calendar-date aggregate, keyed by the
// date of each session's StartedAt. Recomputed wholesale like UserStats.
type DailyStats struct {
	Date                 string   `json:"date"`
	UniqueUsers          []string `json:"unique_users,omitempty"`
	TotalSessions        int      `json:"total_sessions"`
	TotalActions         int      `json:"total_actions"`
	TotalDurationMinutes float64  `json:"total_duration_minutes"`
	AvgSessionDuration   float64  `json:"avg_session_duration"`
}

// Dataset is the canonical in-memory store and the on-disk snapshot
// document. Session append order is significant: the batch-apply path
// resolves duplicate session IDs by scanning Sessions from the end.
type Dataset struct {
	Sessions   []*Session             `json:"sessions"`
	DailyStats map[string]*DailyStats `json:"daily_stats"`
	UserStats  map[string]*UserStats  `json:"user_stats"`
}

// NewDataset returns an empty dataset with all collections initialized.
func NewDataset() *Dataset {
	return &Dataset{
		Sessions:   make([]*Session, 0),
		DailyStats: make(map[string]*DailyStats),
		UserStats:  make(map[string]*UserStats),
	}
}

// Normalize ensures nil collections (from a sparse or legacy snapshot) are
// usable maps/slices so the rest of the system never nil-checks.
func (d *Dataset) Normalize() {
	if d.Sessions == nil {
		d.Sessions = make([]*Session, 0)
	}
	if d.DailyStats == nil {
		d.DailyStats = make(map[string]*DailyStats)
	}
	if d.UserStats == nil {
		d.UserStats = make(map[string]*UserStats)
	}
}

// SummaryStats is the cached payload behind the summary read-query.
type SummaryStats struct {
	TotalSessions        int       `json:"total_sessions"`
	TotalUsers           int       `json:"total_users"`
	ActiveUsers7d        int       `json:"active_users_7d"`
	ActiveUsers30d       int       `json:"active_users_30d"`
	Sessions7d           int       `json:"sessions_7d"`
	AvgSessionDuration7d float64   `json:"avg_session_duration_7d"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// ExportData is the cached payload behind the export read-query. Days is
// zero when the full store was exported.
type ExportData struct {
	Sessions    []*Session             `json:"sessions"`
	DailyStats  map[string]*DailyStats `json:"daily_stats"`
	UserStats   map[string]*UserStats  `json:"user_stats"`
	Days        int                    `json:"days,omitempty"`
	GeneratedAt time.Time              `json:"generated_at"`
}
