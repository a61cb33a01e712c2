package timeline

import (
	"cmp"
	"context"
	"slices"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/wallclock"
)

// DefaultTopApps is the number of apps listed when no limit is given.
const DefaultTopApps = 5

// Period is the time tracked over one calendar window.
type Period struct {
	Range        Range    `json:"range"`
	TotalSeconds int64    `json:"total_seconds"`
	SessionCount int      `json:"session_count"`
	ByApp        []Rollup `json:"by_app"`
}

// Stats is the daily, weekly and monthly usage summary around a day.
type Stats struct {
	Date    string   `json:"date"`
	Today   Period   `json:"today"`
	Week    Period   `json:"week"`
	Month   Period   `json:"month"`
	TopApps []Rollup `json:"top_apps"`
}

// ParseAnchor reads a YYYY-MM-DD day, defaulting to today when empty.
func ParseAnchor(date string) (wallclock.Instant, error) {
	if date == "" {
		return wallclock.Now().StartOfDay(), nil
	}
	d, err := wallclock.ParseDate(date)
	if err != nil {
		return 0, &engine.Error{Op: "usage stats", ID: date, Err: engine.ErrInvalidRange, Detail: "date must be YYYY-MM-DD"}
	}
	return d, nil
}

// Stats summarizes the day of anchor, its Monday to Sunday week and its
// calendar month. TopApps lists the most used apps of the day.
func (s *Service) Stats(ctx context.Context, anchor wallclock.Instant, limit int) (*Stats, error) {
	const op = "usage stats"
	if limit <= 0 {
		limit = DefaultTopApps
	}

	day := anchor.StartOfDay()
	monday := day.AddDays(-((int(day.Time().Weekday()) + 6) % 7))
	t := day.Time()
	first := wallclock.Date(t.Year(), t.Month(), 1, 0, 0, 0)
	last := wallclock.Date(t.Year(), t.Month()+1, 1, 0, 0, 0).AddDays(-1)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	st := &Stats{Date: day.FormatDate()}
	windows := []struct {
		into       *Period
		start, end wallclock.Instant
	}{
		{&st.Today, day, day},
		{&st.Week, monday, monday.AddDays(6)},
		{&st.Month, first, last},
	}
	for _, w := range windows {
		r, err := ResolveRange(w.start.FormatDate(), w.end.FormatDate())
		if err != nil {
			return nil, err
		}
		sessions, err := s.store.GetSessionsInRange(ctx, r.Start, r.End)
		if err != nil {
			return nil, engine.StoreError(op, r.StartDate, err)
		}
		*w.into = period(r, sessions)
	}

	st.TopApps = topApps(st.Today.ByApp, limit)
	return st, nil
}

func period(r Range, sessions []*models.Session) Period {
	p := Period{Range: r, SessionCount: len(sessions), ByApp: AppRollups(sessions)}
	for _, sess := range sessions {
		p.TotalSeconds += sess.Seconds
	}
	return p
}

// topApps orders rollups by time spent, longest first, ties by name.
func topApps(byApp []Rollup, limit int) []Rollup {
	top := slices.Clone(byApp)
	slices.SortStableFunc(top, func(a, b Rollup) int {
		if c := cmp.Compare(b.Seconds, a.Seconds); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(top) > limit {
		top = top[:limit]
	}
	if top == nil {
		top = []Rollup{}
	}
	return top
}
