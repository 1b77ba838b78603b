// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package aggregate

import (
	"sort"

	"github.com/tomtom215/sessionscope/internal/models"
)

// ForUser recomputes the UserStats entry for one user from the full session
// set. Pure function: O(len(sessions)), no shared state, deterministic
// output (DeviceHistory is sorted). Returns nil when the user has no
// sessions, which signals the caller to drop the stale entry.
func ForUser(sessions []*models.Session, userID string) *models.UserStats {
	var (
		stats   *models.UserStats
		devices = make(map[string]struct{})
		seen    = make(map[string]struct{})
		total   float64
	)

	for _, s := range sessions {
		if s.UserID != userID {
			continue
		}

		if stats == nil {
			stats = &models.UserStats{
				UserID:    userID,
				FirstSeen: s.StartedAt,
				LastSeen:  s.StartedAt,
			}
		}

		// Latest username wins; sessions are in append order.
		if s.Username != "" {
			stats.Username = s.Username
		}

		if s.StartedAt.Before(stats.FirstSeen) {
			stats.FirstSeen = s.StartedAt
		}
		last := s.StartedAt
		if s.EndedAt != nil && s.EndedAt.After(last) {
			last = *s.EndedAt
		}
		if last.After(stats.LastSeen) {
			stats.LastSeen = last
		}

		// Distinct session IDs, so a duplicated ID counts once.
		if _, dup := seen[s.SessionID]; !dup {
			seen[s.SessionID] = struct{}{}
			stats.TotalSessions++
		}

		total += s.DurationMinutes

		if s.DeviceInfo != "" {
			devices[s.DeviceInfo] = struct{}{}
		}
	}

	if stats == nil {
		return nil
	}

	stats.TotalTimeMinutes = models.Round2(total)
	if stats.TotalSessions > 0 {
		stats.AvgSessionDuration = models.Round2(total / float64(stats.TotalSessions))
	}
	stats.DeviceHistory = sortedKeys(devices)

	return stats
}

// ForDate recomputes the DailyStats entry for one calendar date from the
// full session set. Same contract as ForUser: pure, deterministic, nil when
// no session started on that date.
func ForDate(sessions []*models.Session, date string) *models.DailyStats {
	var (
		stats *models.DailyStats
		users = make(map[string]struct{})
		total float64
	)

	for _, s := range sessions {
		if s.Date() != date {
			continue
		}

		if stats == nil {
			stats = &models.DailyStats{Date: date}
		}

		stats.TotalSessions++
		stats.TotalActions += s.ActionsCount
		total += s.DurationMinutes
		users[s.UserID] = struct{}{}
	}

	if stats == nil {
		return nil
	}

	stats.TotalDurationMinutes = models.Round2(total)
	if stats.TotalSessions > 0 {
		stats.AvgSessionDuration = models.Round2(total / float64(stats.TotalSessions))
	}
	stats.UniqueUsers = sortedKeys(users)

	return stats
}

// sortedKeys returns the set's members in sorted order so repeated
// recomputations serialize byte-identically.
func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
