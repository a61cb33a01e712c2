// Package timeline reconstructs a continuous, queryable timeline from
// stored sessions. Everything except Service is a pure function.
package timeline

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/wallclock"
)

// NoProject groups sessions that reference no known project.
const NoProject = ""

// NoActivity is the rollup key for sessions without an activity type.
const NoActivity = ""

// Range is a closed range of whole days, [00:00:00 of start, 23:59:59 of end].
type Range struct {
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Start     wallclock.Instant `json:"start"`
	End       wallclock.Instant `json:"end"`
}

// Days returns ceil((End - Start) / 1 day).
func (r Range) Days() int {
	span := r.End.Sub(r.Start)
	return int((span + wallclock.Day - 1) / wallclock.Day)
}

// ResolveRange parses two YYYY-MM-DD dates into a Range.
func ResolveRange(startDate, endDate string) (Range, error) {
	const op = "resolve range"
	start, err := wallclock.ParseDate(startDate)
	if err != nil {
		return Range{}, &engine.Error{Op: op, ID: startDate, Err: engine.ErrInvalidRange, Detail: "start date must be YYYY-MM-DD"}
	}
	end, err := wallclock.ParseDate(endDate)
	if err != nil {
		return Range{}, &engine.Error{Op: op, ID: endDate, Err: engine.ErrInvalidRange, Detail: "end date must be YYYY-MM-DD"}
	}
	if start > end {
		return Range{}, &engine.Error{
			Op:     op,
			Err:    engine.ErrInvalidRange,
			Detail: fmt.Sprintf("start date %s is after end date %s", startDate, endDate),
		}
	}
	return Range{
		StartDate: startDate,
		EndDate:   endDate,
		Start:     start,
		End:       end.Add(wallclock.Day - 1),
	}, nil
}

// Position places instant on the range as a fraction of its length. The
// same formula is used for markers, segments and notes.
func Position(instant wallclock.Instant, r Range) float64 {
	span := r.End.Sub(r.Start)
	if span <= 0 {
		return 0
	}
	return float64(instant.Sub(r.Start)) / float64(span)
}

func clamp01(f float64) float64 {
	return min(max(f, 0), 1)
}

// Sort returns the sessions ordered by start instant. Equal timestamps keep
// their input order.
func Sort(sessions []*models.Session) []*models.Session {
	sorted := slices.Clone(sessions)
	slices.SortStableFunc(sorted, func(a, b *models.Session) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return sorted
}

// Group is one project's sessions in chronological order.
type Group struct {
	ProjectID string
	Sessions  []*models.Session
}

// GroupByProject partitions sorted sessions by project, in order of first
// appearance. Sessions with an empty project id land in NoProject.
func GroupByProject(sorted []*models.Session) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, s := range sorted {
		i, ok := index[s.ProjectID]
		if !ok {
			i = len(groups)
			index[s.ProjectID] = i
			groups = append(groups, Group{ProjectID: s.ProjectID})
		}
		groups[i].Sessions = append(groups[i].Sessions, s)
	}
	return groups
}

// Segment is a visual block of one or more consecutive same-kind sessions.
type Segment struct {
	ProjectID    string             `json:"project_id"`
	ActivityType *string            `json:"activity_type"`
	SessionType  models.SessionType `json:"session_type"`
	Start        wallclock.Instant  `json:"start"`
	End          wallclock.Instant  `json:"end"`
	Seconds      int64              `json:"seconds"`
	StartPos     float64            `json:"start_pos"`
	EndPos       float64            `json:"end_pos"`
	Sessions     []*models.Session  `json:"sessions"`
}

func sameKind(seg *Segment, s *models.Session) bool {
	return seg.ProjectID == s.ProjectID &&
		seg.SessionType == s.Type &&
		models.Deref(seg.ActivityType) == s.ActivityName()
}

// Merge folds each session into the running segment when it has the same
// activity type and session type, regardless of any gap between them.
// Seconds is the sum of the constituents and End the latest computed end.
func Merge(sorted []*models.Session) []Segment {
	var segments []Segment
	for _, s := range sorted {
		if n := len(segments); n > 0 && sameKind(&segments[n-1], s) {
			seg := &segments[n-1]
			seg.Sessions = append(seg.Sessions, s)
			seg.Seconds += s.Seconds
			seg.End = max(seg.End, s.End())
			continue
		}
		segments = append(segments, Segment{
			ProjectID:    s.ProjectID,
			ActivityType: s.ActivityType,
			SessionType:  s.Type,
			Start:        s.Timestamp,
			End:          s.End(),
			Seconds:      s.Seconds,
			Sessions:     []*models.Session{s},
		})
	}
	return segments
}

// place sets the clamped positions of each segment on r.
func place(segments []Segment, r Range) {
	for i := range segments {
		segments[i].StartPos = clamp01(Position(segments[i].Start, r))
		segments[i].EndPos = clamp01(Position(segments[i].End, r))
	}
}
