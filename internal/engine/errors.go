package engine

import (
	"errors"
	"fmt"

	"github.com/joescharf/worktime/internal/store"
)

var (
	ErrInvalidProject   = errors.New("invalid project")
	ErrAlreadyTracking  = errors.New("already tracking")
	ErrNotTracking      = errors.New("not tracking")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidSplit     = errors.New("invalid split")
	ErrInvalidRange     = errors.New("invalid range")
	ErrNoPendingIdle    = errors.New("no pending idle period")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidThreshold = errors.New("invalid idle threshold")
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrPartialFailure means a multi-step write could not be rolled back and
	// the stored sessions need manual reconciliation.
	ErrPartialFailure = errors.New("partial failure")
)

// Error carries the operation and record id a failure refers to.
// Unwrap returns the underlying sentinel so errors.Is works.
type Error struct {
	Op     string
	ID     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, id string, sentinel error, format string, args ...any) *Error {
	return &Error{Op: op, ID: id, Err: sentinel, Detail: fmt.Sprintf(format, args...)}
}

// StoreError translates a store failure into the engine taxonomy.
func StoreError(op, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &Error{Op: op, ID: id, Err: ErrNotFound}
	}
	// Timeouts, driver failures and constraint violations are all surfaced
	// as unavailable; the caller decides whether to retry.
	return &Error{Op: op, ID: id, Err: ErrStoreUnavailable, Detail: err.Error()}
}

// Code returns a stable machine-readable code for err, used by the API and
// MCP layers. Unknown errors map to "internal".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidProject):
		return "invalid_project"
	case errors.Is(err, ErrAlreadyTracking):
		return "already_tracking"
	case errors.Is(err, ErrNotTracking):
		return "not_tracking"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrInvalidSplit):
		return "invalid_split"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrNoPendingIdle):
		return "no_pending_idle"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidThreshold):
		return "invalid_threshold"
	case errors.Is(err, ErrInvalidTimestamp):
		return "invalid_timestamp"
	case errors.Is(err, ErrPartialFailure):
		return "partial_failure"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	}
	return "internal"
}
