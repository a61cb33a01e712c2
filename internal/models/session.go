package models

import "github.com/joescharf/worktime/internal/wallclock"

// SessionType classifies how a session's time was observed.
type SessionType string

const (
	SessionTypeComputer    SessionType = "computer"
	SessionTypeOffComputer SessionType = "off-computer"
	SessionTypeManual      SessionType = "manual"
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeComputer, SessionTypeOffComputer, SessionTypeManual:
		return true
	}
	return false
}

// Session is a stored block of tracked time for one project.
// The session covers [Timestamp, Timestamp+Seconds).
type Session struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id"`
	AppName      string            `json:"app_name"`
	Seconds      int64             `json:"seconds"`
	Type         SessionType       `json:"session_type"`
	ActivityType *string           `json:"activity_type"`
	Timestamp    wallclock.Instant `json:"timestamp"`
}

// End returns the implicit end instant of the session.
func (s *Session) End() wallclock.Instant {
	return s.Timestamp.Add(s.Seconds)
}

// ActivityName returns the activity type or "" when none is set.
func (s *Session) ActivityName() string {
	return Deref(s.ActivityType)
}

// StringPtr returns nil for an empty string, otherwise a pointer to a copy.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
