package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/wallclock"
)

type fakeClock struct {
	now wallclock.Instant
}

func (c *fakeClock) Now() wallclock.Instant { return c.now }

func (c *fakeClock) advance(seconds int64) { c.now = c.now.Add(seconds) }

func at(s string) wallclock.Instant {
	i, err := wallclock.Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTracker(t *testing.T, s store.Store, start string) (*Tracker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: at(start)}
	return NewTracker(s, clock, discardLogger(), Config{}), clock
}

func createProject(t *testing.T, s store.Store, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func allSessions(t *testing.T, s store.Store) []*models.Session {
	t.Helper()
	sessions, err := s.GetSessionsInRange(context.Background(), 0, at("2100-01-01 00:00:00"))
	require.NoError(t, err)
	return sessions
}

var errBoom = errors.New("disk I/O error")

// flakyStore hides the transactional Splitter and injects write failures.
type flakyStore struct {
	store.Store
	failCreate  bool
	failUpdates int // fail every UpdateSession call after this many successes; <0 disables
	updates     int
}

func (f *flakyStore) CreateSession(ctx context.Context, s *models.Session) error {
	if f.failCreate {
		return errors.Join(store.ErrUnavailable, errBoom)
	}
	return f.Store.CreateSession(ctx, s)
}

func (f *flakyStore) UpdateSession(ctx context.Context, s *models.Session) error {
	f.updates++
	if f.failUpdates >= 0 && f.updates > f.failUpdates {
		return errors.Join(store.ErrUnavailable, errBoom)
	}
	return f.Store.UpdateSession(ctx, s)
}
