package models

import "time"

// Cook event types.
const (
	EventSessionStart = "SESSION_START"
	EventSessionEnd   = "SESSION_END"
	EventAlert        = "ALERT"
	EventStall        = "STALL"
	EventUserAction   = "USER_ACTION"
	EventError        = "ERROR"
)

// CookEvent is a single log entry.
type CookEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Metadata   any       `json:"metadata,omitempty"`
}
