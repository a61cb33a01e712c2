package models

import (
	"time"

	"github.com/joescharf/worktime/internal/wallclock"
)

// Checkpoint persists the progress of the running tracking session so an
// interrupted process can recover the active time on restart.
type Checkpoint struct {
	ProjectID     string            `json:"project_id"`
	ActivityType  *string           `json:"activity_type"`
	AppName       string            `json:"app_name"`
	StartedAt     wallclock.Instant `json:"started_at"`
	ActiveSeconds int64             `json:"active_seconds"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
