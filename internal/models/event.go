package models

import "time"

// EventKind identifies a tracking event.
type EventKind string

const (
	// EventAutoStopped is emitted when tracking stopped because no activity
	// was observed for longer than the idle threshold.
	EventAutoStopped EventKind = "tracking-auto-stopped"
	// EventIdleDetected is emitted when a gap was carved out as a pending idle period.
	EventIdleDetected EventKind = "idle-detected"
	// EventRecovered is emitted when an interrupted tracking run was restored on startup.
	EventRecovered EventKind = "tracking-recovered"
)

// TrackingEvent is a durable notification consumers can poll for.
type TrackingEvent struct {
	ID        int64     `json:"id"`
	Kind      EventKind `json:"kind"`
	ProjectID string    `json:"project_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Seconds   int64     `json:"seconds"`
	Reason    string    `json:"reason,omitempty"`
	Acked     bool      `json:"acked"`
	CreatedAt time.Time `json:"created_at"`
}
