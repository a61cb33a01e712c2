package timeline

import (
	"fmt"
	"time"

	"github.com/joescharf/worktime/internal/wallclock"
)

// Granularity names the spacing of axis markers.
type Granularity string

const (
	GranularityHourly  Granularity = "hourly"
	GranularityDaily   Granularity = "daily"
	GranularitySpread  Granularity = "spread"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

const maxSpreadMarkers = 8

// Marker is a labeled position on the timeline axis.
type Marker struct {
	At       wallclock.Instant `json:"at"`
	Label    string            `json:"label"`
	Position float64           `json:"position"`
}

// GranularityFor chooses the marker spacing for r.
func GranularityFor(r Range) Granularity {
	switch days := r.Days(); {
	case days <= 1:
		return GranularityHourly
	case days <= 7:
		return GranularityDaily
	case days <= 31:
		return GranularitySpread
	case days <= 62:
		return GranularityWeekly
	default:
		return GranularityMonthly
	}
}

// Markers returns the axis markers for r. Every marker lies inside r.
func Markers(r Range) []Marker {
	days := r.Days()
	switch GranularityFor(r) {
	case GranularityHourly:
		markers := make([]Marker, 0, 25)
		for h := int64(0); h < 24; h++ {
			markers = append(markers, newMarker(r.Start.Add(h*3600), fmt.Sprintf("%02d:00", h), r))
		}
		return append(markers, newMarker(r.End, r.End.Time().Format("15:04"), r))
	case GranularityDaily:
		return dayMarkers(r, days, 1, func(t time.Time) string {
			return fmt.Sprintf("%s %d/%d", t.Format("Mon"), t.Day(), int(t.Month()))
		})
	case GranularitySpread:
		step := (days + maxSpreadMarkers - 1) / maxSpreadMarkers
		return dayMarkers(r, days, step, dayMonth)
	case GranularityWeekly:
		return dayMarkers(r, days, 7, dayMonth)
	default:
		return monthMarkers(r)
	}
}

func dayMonth(t time.Time) string {
	return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
}

func newMarker(at wallclock.Instant, label string, r Range) Marker {
	return Marker{At: at, Label: label, Position: Position(at, r)}
}

func dayMarkers(r Range, days, step int, label func(time.Time) string) []Marker {
	var markers []Marker
	for d := 0; d <= days; d += step {
		at := r.Start.AddDays(d)
		if at > r.End {
			break
		}
		markers = append(markers, newMarker(at, label(at.Time()), r))
	}
	return markers
}

// monthMarkers returns one marker per first-of-month inside r.
func monthMarkers(r Range) []Marker {
	start := r.Start.Time()
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if wallclock.FromTime(cur) < r.Start {
		cur = cur.AddDate(0, 1, 0)
	}

	var markers []Marker
	for at := wallclock.FromTime(cur); at <= r.End; at = wallclock.FromTime(cur) {
		markers = append(markers, newMarker(at, "1 "+cur.Format("Jan"), r))
		cur = cur.AddDate(0, 1, 0)
	}
	return markers
}
