package engine

import "github.com/joescharf/worktime/internal/wallclock"

// Clock supplies the current wall-clock instant.
type Clock interface {
	Now() wallclock.Instant
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) Now() wallclock.Instant { return wallclock.Now() }
