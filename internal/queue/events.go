// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/sessionscope/internal/models"
)

// EventType discriminates the UpdateEvent variants.
type EventType string

const (
	// EventStartSession carries a fully populated new Session.
	EventStartSession EventType = "start_session"

	// EventUpdateSession increments an endpoint counter on an existing session.
	EventUpdateSession EventType = "update_session"

	// EventEndSession closes an existing session and fixes its duration.
	EventEndSession EventType = "end_session"
)

// DefaultAction is the action label recorded when a producer does not
// supply one on an update event.
const DefaultAction = "API_CALL"

// UpdateEvent is the transient queue payload. It is created by a producer
// call, consumed exactly once per successful batch drain, and discarded
// after application (or silently evicted if the queue is at capacity).
type UpdateEvent struct {
	EventID   string          `json:"event_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Session   *models.Session `json:"session,omitempty"` // start events only
	SessionID string          `json:"session_id,omitempty"`
	Endpoint  string          `json:"endpoint,omitempty"`
	Action    string          `json:"action,omitempty"`
}

// NewStartEvent builds a start event wrapping the given session.
func NewStartEvent(session *models.Session) UpdateEvent {
	return UpdateEvent{
		EventID:   uuid.New().String(),
		Type:      EventStartSession,
		Timestamp: time.Now().UTC(),
		Session:   session,
		SessionID: session.SessionID,
	}
}

// NewUpdateEvent builds an update event for an existing session. An empty
// action defaults to DefaultAction.
func NewUpdateEvent(sessionID, endpoint, action string) UpdateEvent {
	if action == "" {
		action = DefaultAction
	}
	return UpdateEvent{
		EventID:   uuid.New().String(),
		Type:      EventUpdateSession,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Endpoint:  endpoint,
		Action:    action,
	}
}

// NewEndEvent builds an end event for an existing session.
func NewEndEvent(sessionID string) UpdateEvent {
	return UpdateEvent{
		EventID:   uuid.New().String(),
		Type:      EventEndSession,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
	}
}
