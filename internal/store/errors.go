package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable wraps every driver or I/O failure.
	ErrUnavailable = errors.New("store unavailable")
	// ErrConflict is returned when a write violates a uniqueness or reference rule.
	ErrConflict = errors.New("conflict")
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// wrapErr classifies a driver error for op.
func wrapErr(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
