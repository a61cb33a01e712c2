package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/worktime/internal/models"
)

// pendingAfterGap starts tracking on p and carves a gap of gapMinutes.
func pendingAfterGap(t *testing.T, tr *Tracker, clock *fakeClock, p *models.Project, gapMinutes int64) {
	t.Helper()
	ctx := context.Background()
	_, err := tr.StartTracking(ctx, p.ID, nil)
	require.NoError(t, err)
	clock.advance(gapMinutes * 60)
	require.NoError(t, tr.Tick(ctx, ""))
	_, err = tr.StopTracking(ctx)
	require.NoError(t, err)
	require.NotNil(t, tr.CheckPending())
}

func TestCheckPending_Idempotent(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	tr, clock := newTestTracker(t, s, "2025-01-15 09:00:00")

	assert.Nil(t, tr.CheckPending())

	pendingAfterGap(t, tr, clock, p, 8)
	first := tr.CheckPending()
	for i := 0; i < 5; i++ {
		clock.advance(60)
		assert.Equal(t, first, tr.CheckPending())
	}

	// Mutating the returned copy does not affect the tracker.
	first.Minutes = 99
	assert.Equal(t, int64(8), tr.CheckPending().Minutes)
}

func TestAttributeToProject(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	other := createProject(t, s, "beta")
	tr, clock := newTestTracker(t, s, "2025-01-15 09:00:00")
	ctx := context.Background()

	pendingAfterGap(t, tr, clock, p, 8)

	sess, err := tr.AttributeToProject(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, sess.ProjectID)
	assert.Equal(t, int64(480), sess.Seconds)
	assert.Equal(t, at("2025-01-15 09:00:00"), sess.Timestamp)
	assert.Equal(t, models.SessionTypeOffComputer, sess.Type)
	assert.Equal(t, IdleAppName, sess.AppName)

	assert.Nil(t, tr.CheckPending())
	_, err = tr.AttributeToProject(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNoPendingIdle)
}

func TestAttributeToProject_InvalidProjectKeepsPending(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	tr, clock := newTestTracker(t, s, "2025-01-15 09:00:00")
	ctx := context.Background()

	pendingAfterGap(t, tr, clock, p, 8)

	_, err := tr.AttributeToProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrInvalidProject)

	require.NoError(t, s.ArchiveProject(ctx, p.ID))
	_, err = tr.AttributeToProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrInvalidProject)

	assert.NotNil(t, tr.CheckPending())
	assert.Empty(t, allSessions(t, s))
}

func TestAttributeToProject_ZeroMinutes(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	tr, _ := newTestTracker(t, s, "2025-01-15 09:00:00")

	tr.pending = newPending(at("2025-01-15 09:00:00"), at("2025-01-15 09:00:45"), p.ID)

	_, err := tr.AttributeToProject(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.NotNil(t, tr.CheckPending())

	_, err = tr.AttributeAsBreak()
	require.NoError(t, err)
}

func TestAttributeToProject_StoreFailureKeepsPending(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	flaky := &flakyStore{Store: s, failUpdates: -1}
	tr, clock := newTestTracker(t, flaky, "2025-01-15 09:00:00")

	pendingAfterGap(t, tr, clock, p, 8)

	flaky.failCreate = true
	_, err := tr.AttributeToProject(context.Background(), p.ID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotNil(t, tr.CheckPending())
}

func TestAttributeAsBreak(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	tr, clock := newTestTracker(t, s, "2025-01-15 09:00:00")

	pendingAfterGap(t, tr, clock, p, 8)
	before := len(allSessions(t, s))

	resolved, err := tr.AttributeAsBreak()
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, int64(8), resolved.Minutes)
	assert.Nil(t, tr.CheckPending())
	assert.Len(t, allSessions(t, s), before, "break creates no session")
}

func TestAttributeAsBreak_NoPending(t *testing.T) {
	s := newTestStore(t)
	tr, _ := newTestTracker(t, s, "2025-01-15 09:00:00")

	_, err := tr.AttributeAsBreak()
	assert.ErrorIs(t, err, ErrNoPendingIdle)
	assert.Empty(t, allSessions(t, s))
}

func TestNewGapDetectedAfterResolution(t *testing.T) {
	s := newTestStore(t)
	p := createProject(t, s, "alpha")
	tr, clock := newTestTracker(t, s, "2025-01-15 09:00:00")
	ctx := context.Background()

	pendingAfterGap(t, tr, clock, p, 8)
	_, err := tr.AttributeAsBreak()
	require.NoError(t, err)

	_, err = tr.StartTracking(ctx, p.ID, nil)
	require.NoError(t, err)
	clock.advance(420)
	require.NoError(t, tr.Tick(ctx, ""))

	pending := tr.CheckPending()
	require.NotNil(t, pending)
	assert.Equal(t, int64(7), pending.Minutes)
}
