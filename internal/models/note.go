package models

import "github.com/joescharf/worktime/internal/wallclock"

// Note is a time-correlated annotation shown alongside the timeline.
type Note struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	Text      string            `json:"text"`
	Timestamp wallclock.Instant `json:"timestamp"`
}
