package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/wallclock"
)

func at(s string) wallclock.Instant {
	i, err := wallclock.Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

func sess(id, project, ts string, seconds int64, activity string) *models.Session {
	return &models.Session{
		ID:           id,
		ProjectID:    project,
		Seconds:      seconds,
		Type:         models.SessionTypeComputer,
		ActivityType: models.StringPtr(activity),
		Timestamp:    at(ts),
	}
}

func TestResolveRange(t *testing.T) {
	r, err := ResolveRange("2025-01-15", "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, at("2025-01-15 00:00:00"), r.Start)
	assert.Equal(t, at("2025-01-15 23:59:59"), r.End)
	assert.Equal(t, 1, r.Days())

	r, err = ResolveRange("2025-01-13", "2025-01-19")
	require.NoError(t, err)
	assert.Equal(t, 7, r.Days())
}

func TestResolveRange_Invalid(t *testing.T) {
	_, err := ResolveRange("2025-01-16", "2025-01-15")
	assert.ErrorIs(t, err, engine.ErrInvalidRange)

	_, err = ResolveRange("15/01/2025", "2025-01-15")
	assert.ErrorIs(t, err, engine.ErrInvalidRange)

	_, err = ResolveRange("2025-01-15", "")
	assert.ErrorIs(t, err, engine.ErrInvalidRange)
}

func TestSort_StableForEqualTimestamps(t *testing.T) {
	in := []*models.Session{
		sess("c", "p", "2025-01-15 10:00:00", 60, "A"),
		sess("a", "p", "2025-01-15 09:00:00", 60, "A"),
		sess("b1", "p", "2025-01-15 09:30:00", 60, "A"),
		sess("b2", "p", "2025-01-15 09:30:00", 60, "B"),
	}
	out := Sort(in)

	var ids []string
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids)
	assert.Equal(t, "c", in[0].ID, "input is not reordered")
}

func TestGroupByProject(t *testing.T) {
	sorted := []*models.Session{
		sess("1", "beta", "2025-01-15 08:00:00", 60, "A"),
		sess("2", "alpha", "2025-01-15 09:00:00", 60, "A"),
		sess("3", NoProject, "2025-01-15 09:30:00", 60, "A"),
		sess("4", "beta", "2025-01-15 10:00:00", 60, "A"),
	}
	groups := GroupByProject(sorted)
	require.Len(t, groups, 3)
	assert.Equal(t, "beta", groups[0].ProjectID)
	assert.Len(t, groups[0].Sessions, 2)
	assert.Equal(t, "4", groups[0].Sessions[1].ID)
	assert.Equal(t, "alpha", groups[1].ProjectID)
	assert.Equal(t, NoProject, groups[2].ProjectID)
}

func TestMerge_SameKindAdjacency(t *testing.T) {
	sorted := []*models.Session{
		sess("1", "A", "2025-01-15 09:00:00", 1800, "RICERCA"),
		sess("2", "A", "2025-01-15 09:40:00", 900, "RICERCA"),
		sess("3", "A", "2025-01-15 10:30:00", 600, "DESIGN"),
	}
	segments := Merge(sorted)
	require.Len(t, segments, 2)

	assert.Equal(t, at("2025-01-15 09:00:00"), segments[0].Start)
	assert.Equal(t, at("2025-01-15 09:55:00"), segments[0].End, "end is the later computed end")
	assert.Equal(t, int64(2700), segments[0].Seconds)
	assert.Len(t, segments[0].Sessions, 2)
	assert.Equal(t, "RICERCA", *segments[0].ActivityType)

	assert.Equal(t, at("2025-01-15 10:30:00"), segments[1].Start)
	assert.Equal(t, at("2025-01-15 10:40:00"), segments[1].End)
	assert.Equal(t, int64(600), segments[1].Seconds)
}

func TestMerge_SessionTypeBreaksSegment(t *testing.T) {
	idle := sess("2", "A", "2025-01-15 09:30:00", 600, "RICERCA")
	idle.Type = models.SessionTypeOffComputer
	sorted := []*models.Session{
		sess("1", "A", "2025-01-15 09:00:00", 1800, "RICERCA"),
		idle,
		sess("3", "A", "2025-01-15 09:40:00", 600, "RICERCA"),
	}
	assert.Len(t, Merge(sorted), 3)
}

func TestMerge_NilAndEmptyActivityMatch(t *testing.T) {
	a := sess("1", "A", "2025-01-15 09:00:00", 60, "")
	b := sess("2", "A", "2025-01-15 09:05:00", 60, "")
	a.ActivityType = nil
	assert.Len(t, Merge([]*models.Session{a, b}), 1)
	assert.Empty(t, Merge(nil))
}

func TestMerge_ContainedSessionKeepsEnd(t *testing.T) {
	sorted := []*models.Session{
		sess("1", "A", "2025-01-15 09:00:00", 3600, "X"),
		sess("2", "A", "2025-01-15 09:10:00", 600, "X"),
	}
	segments := Merge(sorted)
	require.Len(t, segments, 1)
	assert.Equal(t, at("2025-01-15 10:00:00"), segments[0].End)
	assert.Equal(t, int64(4200), segments[0].Seconds)
}

func TestRollups_MergeInvariant(t *testing.T) {
	raw := Sort([]*models.Session{
		sess("1", "A", "2025-01-15 09:00:00", 1800, "RICERCA"),
		sess("2", "A", "2025-01-15 09:40:00", 900, "RICERCA"),
		sess("3", "B", "2025-01-15 10:00:00", 300, "RICERCA"),
		sess("4", "A", "2025-01-15 10:30:00", 600, "DESIGN"),
		sess("5", "B", "2025-01-15 11:00:00", 1200, "DESIGN"),
		sess("6", "A", "2025-01-15 12:00:00", 60, "RICERCA"),
	})

	byProject, byActivity, total := Rollups(raw)
	assert.Equal(t, int64(4860), total)

	mergedProject := map[string]int64{}
	mergedActivity := map[string]int64{}
	for _, g := range GroupByProject(raw) {
		for _, seg := range Merge(g.Sessions) {
			mergedProject[seg.ProjectID] += seg.Seconds
			mergedActivity[models.Deref(seg.ActivityType)] += seg.Seconds
		}
	}
	for _, r := range byProject {
		assert.Equal(t, r.Seconds, mergedProject[r.Key], "project %s", r.Key)
	}
	for _, r := range byActivity {
		assert.Equal(t, r.Seconds, mergedActivity[r.Key], "activity %s", r.Key)
	}

	require.Len(t, byActivity, 2)
	assert.Equal(t, "RICERCA", byActivity[0].Key)
	assert.Equal(t, int64(3060), byActivity[0].Seconds)
	require.NotNil(t, byActivity[0].Percentage)
	assert.InDelta(t, 62.96, *byActivity[0].Percentage, 0.01)
}

func TestRollups_ZeroTotalHasNoPercentage(t *testing.T) {
	byProject, byActivity, total := Rollups(nil)
	assert.Empty(t, byProject)
	assert.Empty(t, byActivity)
	assert.Zero(t, total)

	rollups := []Rollup{{Key: "A"}}
	setPercentages(rollups, 0)
	assert.Nil(t, rollups[0].Percentage)
}

func TestPosition(t *testing.T) {
	r, err := ResolveRange("2025-01-15", "2025-01-15")
	require.NoError(t, err)

	assert.Equal(t, 0.0, Position(r.Start, r))
	assert.Equal(t, 1.0, Position(r.End, r))
	assert.InDelta(t, 0.5, Position(at("2025-01-15 12:00:00"), r), 0.0001)

	segments := Merge([]*models.Session{sess("1", "A", "2025-01-14 23:30:00", 3600, "X")})
	place(segments, r)
	assert.Equal(t, 0.0, segments[0].StartPos, "overnight session clamps to range start")
	assert.InDelta(t, 1800.0/86399.0, segments[0].EndPos, 1e-9)
}
