// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package models

import (
	"math"
	"time"
)

// DateLayout is the calendar-date key format used by DailyStats.
const DateLayout = "2006-01-02"

// Session represents one continuous usage episode by a user.
//
// Sessions are append-mostly: created by a start event, mutated in place by
// update/end events and direct screen-visit writes, and removed only by
// age-based retention cleanup. SessionID is intended to be unique but is not
// enforced; duplicate IDs resolve as last-write-wins (the update path scans
// the session list from the end).
type Session struct {
	SessionID       string         `json:"session_id"`
	UserID          string         `json:"user_id"`
	Username        string         `json:"username"`
	DeviceInfo      string         `json:"device_info,omitempty"`
	Platform        string         `json:"platform,omitempty"`
	AppVersion      string         `json:"app_version,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
	DurationMinutes float64        `json:"duration_minutes"`
	IPAddress       string         `json:"ip_address,omitempty"`
	ScreensVisited  []string       `json:"screens_visited,omitempty"`
	ActionsCount    int            `json:"actions_count"`
	EndpointsUsed   map[string]int `json:"endpoints_used,omitempty"`
}

// Date returns the calendar-date key derived from StartedAt.
func (s *Session) Date() string {
	return s.StartedAt.Format(DateLayout)
}

// RecomputeDuration refreshes DurationMinutes from the start/end pair.
// A missing end timestamp, a zero start, or an inverted interval all
// default the duration to zero rather than failing the surrounding batch.
func (s *Session) RecomputeDuration() {
	if s.EndedAt == nil || s.StartedAt.IsZero() || s.EndedAt.Before(s.StartedAt) {
		s.DurationMinutes = 0
		return
	}
	s.DurationMinutes = Round2(s.EndedAt.Sub(s.StartedAt).Minutes())
}

// VisitScreen appends a screen name if not already present (set semantics).
// Returns true if the screen was added.
func (s *Session) VisitScreen(screen string) bool {
	for _, v := range s.ScreensVisited {
		if v == screen {
			return false
		}
	}
	s.ScreensVisited = append(s.ScreensVisited, screen)
	return true
}

// Round2 rounds to two decimal places, the precision used for all derived
// duration figures.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
