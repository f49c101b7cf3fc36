// Package sse streams onboarding session updates to connected clients.
package sse

import "time"

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventState carries the full wizard state after every change.
	EventState EventType = "state"
	// EventCompleted is sent once, when the preferences were saved.
	EventCompleted EventType = "completed"
	// EventClosed tells subscribers the session is gone.
	EventClosed EventType = "closed"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message delivered to the subscribers of a session.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStateEvent creates a state event for a session.
func NewStateEvent(sessionID string, state any) Event {
	return Event{Type: EventState, SessionID: sessionID, Data: state, Timestamp: time.Now()}
}

// NewCompletedEvent creates the completion event for a session.
func NewCompletedEvent(sessionID string, outcome any) Event {
	return Event{Type: EventCompleted, SessionID: sessionID, Data: outcome, Timestamp: time.Now()}
}

// NewClosedEvent creates the terminal event for a session.
func NewClosedEvent(sessionID, reason string) Event {
	return Event{
		Type:      EventClosed,
		SessionID: sessionID,
		Data:      map[string]string{"reason": reason},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, Timestamp: time.Now()}
}
