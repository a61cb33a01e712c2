// Package wallclock holds the canonical representation of instants used by
// the tracking engine: seconds of the naive local wall clock.
//
// An Instant is the Unix-epoch second count obtained by reading the wall-clock
// fields (year..second) of a local time as if they were UTC. No time zone or
// DST conversion is ever applied, so the difference of two instants is always
// the elapsed seconds a user reads off the clock.
package wallclock

import (
	"fmt"
	"strings"
	"time"
)

// Instant is a naive local wall-clock time in seconds.
type Instant int64

// Day is the number of seconds in a calendar day.
const Day int64 = 24 * 60 * 60

// Layout is the storage and display format of an instant.
const Layout = "2006-01-02 15:04:05"

// DateLayout is the format of a calendar date.
const DateLayout = "2006-01-02"

var layouts = []string{
	Layout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// Parse converts any of the accepted timestamp spellings into an Instant.
// Offsets in RFC 3339 input are ignored: the wall-clock fields are kept as written.
func Parse(s string) (Instant, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return FromTime(t), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), nil
	}
	return 0, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseDate parses a YYYY-MM-DD calendar date into the instant of its midnight.
func ParseDate(s string) (Instant, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return 0, fmt.Errorf("unrecognized date %q", s)
	}
	return FromTime(t), nil
}

// FromTime reads the wall-clock fields of t.
func FromTime(t time.Time) Instant {
	return Instant(time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC).Unix())
}

// Date builds an instant from calendar fields.
func Date(year int, month time.Month, day, hour, min, sec int) Instant {
	return Instant(time.Date(year, month, day, hour, min, sec, 0, time.UTC).Unix())
}

// Now returns the current local wall-clock instant.
func Now() Instant {
	return FromTime(time.Now())
}

// Time returns the instant as a time.Time in UTC whose fields equal the wall clock.
// Use it only for labels and calendar arithmetic, never to compute durations.
func (i Instant) Time() time.Time {
	return time.Unix(int64(i), 0).UTC()
}

// Add returns the instant shifted by the given number of seconds.
func (i Instant) Add(seconds int64) Instant {
	return i + Instant(seconds)
}

// Sub returns i - j in seconds.
func (i Instant) Sub(j Instant) int64 {
	return int64(i - j)
}

// StartOfDay truncates the instant to 00:00:00 of its day.
func (i Instant) StartOfDay() Instant {
	secs := int64(i)
	rem := secs % Day
	if rem < 0 {
		rem += Day
	}
	return Instant(secs - rem)
}

// AddDays shifts the instant by whole calendar days.
func (i Instant) AddDays(n int) Instant {
	return i.Add(int64(n) * Day)
}

func (i Instant) String() string {
	return i.Time().Format(Layout)
}

// FormatDate returns the YYYY-MM-DD part of the instant.
func (i Instant) FormatDate() string {
	return i.Time().Format(DateLayout)
}

// MarshalText encodes the instant in Layout.
func (i Instant) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText accepts any spelling Parse accepts.
func (i *Instant) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}
