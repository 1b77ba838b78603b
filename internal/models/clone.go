// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package models

// The read-query paths hand results to callers and to the cache while the
// batch consumer keeps mutating sessions in place under its own lock.
// Everything that leaves the lock is deep-copied here so cached objects
// never alias live canonical data.

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	clone := *s

	if s.EndedAt != nil {
		ended := *s.EndedAt
		clone.EndedAt = &ended
	}
	if s.ScreensVisited != nil {
		clone.ScreensVisited = append([]string(nil), s.ScreensVisited...)
	}
	if s.EndpointsUsed != nil {
		clone.EndpointsUsed = make(map[string]int, len(s.EndpointsUsed))
		for k, v := range s.EndpointsUsed {
			clone.EndpointsUsed[k] = v
		}
	}

	return &clone
}

// Clone returns a deep copy of the user aggregate.
func (u *UserStats) Clone() *UserStats {
	if u == nil {
		return nil
	}

	clone := *u
	if u.DeviceHistory != nil {
		clone.DeviceHistory = append([]string(nil), u.DeviceHistory...)
	}
	return &clone
}

// Clone returns a deep copy of the daily aggregate.
func (d *DailyStats) Clone() *DailyStats {
	if d == nil {
		return nil
	}

	clone := *d
	if d.UniqueUsers != nil {
		clone.UniqueUsers = append([]string(nil), d.UniqueUsers...)
	}
	return &clone
}
