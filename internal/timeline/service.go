package timeline

import (
	"context"
	"time"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/wallclock"
)

const noProjectName = "No project"

// Lane is one project's row on the timeline.
type Lane struct {
	ProjectID    string    `json:"project_id"`
	ProjectName  string    `json:"project_name"`
	Segments     []Segment `json:"segments"`
	TotalSeconds int64     `json:"total_seconds"`
}

// NoteMark is a note placed on the timeline.
type NoteMark struct {
	*models.Note
	ProjectName string  `json:"project_name"`
	Position    float64 `json:"position"`
}

// Timeline is the aggregated view of a date range.
type Timeline struct {
	Range        Range       `json:"range"`
	Granularity  Granularity `json:"granularity"`
	Empty        bool        `json:"empty"`
	Lanes        []Lane      `json:"lanes"`
	Markers      []Marker    `json:"markers"`
	ByProject    []Rollup    `json:"by_project"`
	ByActivity   []Rollup    `json:"by_activity"`
	ByApp        []Rollup    `json:"by_app"`
	Notes        []NoteMark  `json:"notes"`
	TotalSeconds int64       `json:"total_seconds"`
}

// Report is the closing summary of a project.
type Report struct {
	Project       *models.Project    `json:"project"`
	TotalSeconds  int64              `json:"total_seconds"`
	SessionCount  int                `json:"session_count"`
	ByActivity    []Rollup           `json:"by_activity"`
	BySessionType []Rollup           `json:"by_session_type"`
	ByApp         []Rollup           `json:"by_app"`
	FirstSession  *wallclock.Instant `json:"first_session,omitempty"`
	LastActivity  *wallclock.Instant `json:"last_activity,omitempty"`
}

// Service loads sessions from the store and aggregates them.
type Service struct {
	store   store.Store
	timeout time.Duration
}

// NewService creates a timeline service.
func NewService(s store.Store, cfg engine.Config) *Service {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = engine.DefaultStoreTimeout
	}
	return &Service{store: s, timeout: timeout}
}

// GetTimeline aggregates the sessions of [startDate, endDate]. A range with
// no sessions is not an error; the result has Empty set.
func (s *Service) GetTimeline(ctx context.Context, startDate, endDate string) (*Timeline, error) {
	const op = "get timeline"
	r, err := ResolveRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.store.GetSessionsInRange(ctx, r.Start, r.End)
	if err != nil {
		return nil, engine.StoreError(op, "", err)
	}
	notes, err := s.store.ListNotesInRange(ctx, r.Start, r.End)
	if err != nil {
		return nil, engine.StoreError(op, "", err)
	}
	names, err := s.projectNames(ctx)
	if err != nil {
		return nil, engine.StoreError(op, "", err)
	}

	sorted := Sort(raw)
	tl := &Timeline{
		Range:       r,
		Granularity: GranularityFor(r),
		Empty:       len(sorted) == 0,
		Markers:     Markers(r),
		Lanes:       []Lane{},
		Notes:       []NoteMark{},
	}

	// Store results may be shared, so orphaned sessions are relabelled on a copy.
	for i, sess := range sorted {
		if _, ok := names[sess.ProjectID]; !ok {
			c := *sess
			c.ProjectID = NoProject
			sorted[i] = &c
		}
	}

	for _, g := range GroupByProject(sorted) {
		segments := Merge(g.Sessions)
		place(segments, r)
		lane := Lane{ProjectID: g.ProjectID, ProjectName: nameOf(names, g.ProjectID), Segments: segments}
		for _, seg := range segments {
			lane.TotalSeconds += seg.Seconds
		}
		tl.Lanes = append(tl.Lanes, lane)
	}

	tl.ByProject, tl.ByActivity, tl.TotalSeconds = Rollups(sorted)
	tl.ByApp = AppRollups(sorted)
	for i := range tl.ByProject {
		tl.ByProject[i].Name = nameOf(names, tl.ByProject[i].Key)
	}
	for i := range tl.ByActivity {
		if tl.ByActivity[i].Key == NoActivity {
			tl.ByActivity[i].Name = "none"
		}
	}

	for _, n := range notes {
		tl.Notes = append(tl.Notes, NoteMark{Note: n, ProjectName: nameOf(names, n.ProjectID), Position: Position(n.Timestamp, r)})
	}
	return tl, nil
}

// ProjectReport summarizes every session ever recorded for a project.
func (s *Service) ProjectReport(ctx context.Context, projectID string) (*Report, error) {
	const op = "project report"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, engine.StoreError(op, projectID, err)
	}
	sessions, err := s.store.ListProjectSessions(ctx, projectID)
	if err != nil {
		return nil, engine.StoreError(op, projectID, err)
	}

	rep := &Report{Project: p, SessionCount: len(sessions)}
	_, rep.ByActivity, rep.TotalSeconds = Rollups(sessions)
	for i := range rep.ByActivity {
		if rep.ByActivity[i].Key == NoActivity {
			rep.ByActivity[i].Name = "none"
		}
	}
	rep.BySessionType = sumBy(sessions, func(s *models.Session) string { return string(s.Type) })
	setPercentages(rep.BySessionType, rep.TotalSeconds)
	rep.ByApp = AppRollups(sessions)

	for _, sess := range sessions {
		start, end := sess.Timestamp, sess.End()
		if rep.FirstSession == nil || start < *rep.FirstSession {
			rep.FirstSession = &start
		}
		if rep.LastActivity == nil || end > *rep.LastActivity {
			rep.LastActivity = &end
		}
	}
	return rep, nil
}

func (s *Service) projectNames(ctx context.Context) (map[string]string, error) {
	projects, err := s.store.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

func nameOf(names map[string]string, projectID string) string {
	if name, ok := names[projectID]; ok {
		return name
	}
	return noProjectName
}
