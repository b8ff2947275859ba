package models

import "time"

// MashEvent is a single log entry.
type MashEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // see the Event* constants in the root package
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
