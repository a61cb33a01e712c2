package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
)

func newTestSession(t *testing.T, s store.Store, projectID, ts string, seconds int64) *models.Session {
	t.Helper()
	sess := &models.Session{ProjectID: projectID, AppName: "editor", Seconds: seconds, Timestamp: at(ts)}
	require.NoError(t, s.CreateSession(context.Background(), sess))
	return sess
}

func TestSplit(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)

	res, err := ed.Split(context.Background(), sess.ID, 1500, models.StringPtr("RICERCA"), models.StringPtr("realizzazione"))
	require.NoError(t, err)

	assert.Equal(t, sess.ID, res.First.ID)
	assert.Equal(t, at("2025-01-15 09:00:00"), res.First.Timestamp)
	assert.Equal(t, int64(1500), res.First.Seconds)
	assert.Equal(t, "RICERCA", res.First.ActivityName())

	assert.NotEqual(t, sess.ID, res.Second.ID)
	assert.Equal(t, at("2025-01-15 09:25:00"), res.Second.Timestamp)
	assert.Equal(t, int64(2100), res.Second.Seconds)
	assert.Equal(t, "REALIZZAZIONE", res.Second.ActivityName())
	assert.Equal(t, p.ID, res.Second.ProjectID)
	assert.Equal(t, "editor", res.Second.AppName)

	stored := allSessions(t, s)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(3600), stored[0].Seconds+stored[1].Seconds)
}

func TestSplit_ConservesDurationForEveryPoint(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	ctx := context.Background()

	const total = 7
	for k := int64(1); k < total; k++ {
		orig := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", total)
		res, err := ed.Split(ctx, orig.ID, k, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, int64(total), res.First.Seconds+res.Second.Seconds)
		assert.Equal(t, res.First.End(), res.Second.Timestamp, "no gap or overlap")

		// Re-merging reproduces the original interval.
		start := min(res.First.Timestamp, res.Second.Timestamp)
		end := max(res.First.End(), res.Second.End())
		assert.Equal(t, orig.Timestamp, start)
		assert.Equal(t, orig.End(), end)

		require.NoError(t, ed.Delete(ctx, res.First.ID))
		require.NoError(t, ed.Delete(ctx, res.Second.ID))
	}
}

func TestSplit_InvalidPoint(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)

	for _, k := range []int64{0, -5, 3600, 4000} {
		_, err := ed.Split(context.Background(), sess.ID, k, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidSplit, "k=%d", k)
	}

	_, err := ed.Split(context.Background(), sess.ID, 3600, nil, nil)
	assert.EqualError(t, err, "split session "+sess.ID+": invalid split: first part 3600s must be within (0, 3600)")

	stored := allSessions(t, s)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(3600), stored[0].Seconds)
}

func TestSplit_NotFound(t *testing.T) {
	s := newTestStore(t)
	ed := NewEditor(s, discardLogger(), Config{})

	_, err := ed.Split(context.Background(), "missing", 10, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplit_CompensatingRollback(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)

	flaky := &flakyStore{Store: s, failCreate: true, failUpdates: -1}
	ed := NewEditor(flaky, discardLogger(), Config{})

	_, err := ed.Split(context.Background(), sess.ID, 1500, nil, nil)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrPartialFailure)

	stored := allSessions(t, s)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(3600), stored[0].Seconds, "shrink rolled back")
}

func TestSplit_PartialFailure(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)

	// The shrink succeeds, the insert fails and so does the rollback.
	flaky := &flakyStore{Store: s, failCreate: true, failUpdates: 1}
	ed := NewEditor(flaky, discardLogger(), Config{})

	_, err := ed.Split(context.Background(), sess.ID, 1500, nil, nil)
	assert.ErrorIs(t, err, ErrPartialFailure)

	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, sess.ID, engErr.ID)
	assert.Equal(t, "partial_failure", Code(err))
}

func TestUpdateDuration(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)
	ctx := context.Background()

	for _, secs := range []int64{0, -1} {
		_, err := ed.UpdateDuration(ctx, sess.ID, secs)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	}

	got, err := ed.UpdateDuration(ctx, sess.ID, 1800)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), got.Seconds)

	stored, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), stored.Seconds)
	assert.Equal(t, sess.Timestamp, stored.Timestamp)

	_, err = ed.UpdateDuration(ctx, "missing", 60)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateActivityType(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)
	ctx := context.Background()

	got, err := ed.UpdateActivityType(ctx, sess.ID, models.StringPtr("progettazione"))
	require.NoError(t, err)
	assert.Equal(t, "PROGETTAZIONE", got.ActivityName())

	_, err = ed.UpdateActivityType(ctx, sess.ID, models.StringPtr("UNKNOWN"))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = ed.UpdateActivityType(ctx, sess.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.ActivityType)

	stored, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ActivityType)
}

func TestRetime(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)
	ctx := context.Background()

	_, err := ed.Retime(ctx, sess.ID, at("2025-01-15 08:30:00"), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = ed.Retime(ctx, sess.ID, 0, 60, nil)
	require.ErrorIs(t, err, ErrInvalidTimestamp)
	assert.Contains(t, err.Error(), sess.ID)
	unchanged, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, at("2025-01-15 09:00:00"), unchanged.Timestamp)

	got, err := ed.Retime(ctx, sess.ID, at("2025-01-15 08:30:00"), 5400, models.StringPtr("RICERCA"))
	require.NoError(t, err)
	assert.Equal(t, at("2025-01-15 08:30:00"), got.Timestamp)
	assert.Equal(t, int64(5400), got.Seconds)

	stored, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, at("2025-01-15 08:30:00"), stored.Timestamp)
	assert.Equal(t, int64(5400), stored.Seconds)
	assert.Equal(t, "RICERCA", stored.ActivityName())
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	sess := newTestSession(t, s, p.ID, "2025-01-15 09:00:00", 3600)
	ctx := context.Background()

	require.NoError(t, ed.Delete(ctx, sess.ID))
	assert.ErrorIs(t, ed.Delete(ctx, sess.ID), ErrNotFound)
	assert.Empty(t, allSessions(t, s))
}

func TestCreateManual(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	ed := NewEditor(s, discardLogger(), Config{})
	ctx := context.Background()

	_, err := ed.CreateManual(ctx, ManualSession{ProjectID: p.ID, Seconds: 0, Timestamp: at("2025-01-15 14:00:00")})
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = ed.CreateManual(ctx, ManualSession{ProjectID: "missing", Seconds: 60, Timestamp: at("2025-01-15 14:00:00")})
	assert.ErrorIs(t, err, ErrInvalidProject)

	_, err = ed.CreateManual(ctx, ManualSession{ProjectID: p.ID, Seconds: 600})
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	assert.Empty(t, allSessions(t, s))

	require.NoError(t, s.ArchiveProject(ctx, p.ID))
	sess, err := ed.CreateManual(ctx, ManualSession{ProjectID: p.ID, Seconds: 900, Timestamp: at("2025-01-15 14:00:00")})
	require.NoError(t, err, "archived projects still accept back-filled time")
	assert.Equal(t, models.SessionTypeManual, sess.Type)
	assert.Equal(t, "Manual entry", sess.AppName)
}
