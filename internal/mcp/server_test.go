package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/timeline"
	"github.com/joescharf/worktime/internal/wallclock"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type stepClock struct{ now wallclock.Instant }

func (c *stepClock) Now() wallclock.Instant { return c.now }

func newTestServer(t *testing.T) (*Server, store.Store, *stepClock) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })

	start, err := wallclock.Parse("2025-01-15 10:00:00")
	require.NoError(t, err)
	clock := &stepClock{now: start}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := engine.Config{}
	srv := NewServer(s,
		engine.NewTracker(s, clock, logger, cfg),
		engine.NewEditor(s, logger, cfg),
		timeline.NewService(s, cfg),
		"test")
	return srv, s, clock
}

func addProject(t *testing.T, s store.Store, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target), "result text: %s", text)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNewServer(t *testing.T) {
	srv, _, _ := newTestServer(t)
	assert.NotNil(t, srv.MCPServer())
	assert.NotNil(t, srv.HTTPHandler())
}

func TestHandleListProjects(t *testing.T) {
	srv, s, _ := newTestServer(t)
	addProject(t, s, "Thesis")
	archived := addProject(t, s, "Old")
	require.NoError(t, s.ArchiveProject(context.Background(), archived.ID))

	result, err := srv.handleListProjects(context.Background(), callToolReq("wt_list_projects", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var all []map[string]any
	resultJSON(t, result, &all)
	assert.Len(t, all, 2)

	result, err = srv.handleListProjects(context.Background(),
		callToolReq("wt_list_projects", map[string]any{"status": "archived"}))
	require.NoError(t, err)

	var onlyArchived []map[string]any
	resultJSON(t, result, &onlyArchived)
	require.Len(t, onlyArchived, 1)
	assert.Equal(t, "Old", onlyArchived[0]["name"])
}

func TestHandleTrackingLifecycle(t *testing.T) {
	srv, s, clock := newTestServer(t)
	addProject(t, s, "Thesis")
	ctx := context.Background()

	result, err := srv.handleStartTracking(ctx, callToolReq("wt_start_tracking",
		map[string]any{"project": "Thesis", "activity_type": "progettazione"}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var st engine.Status
	resultJSON(t, result, &st)
	assert.True(t, st.IsTracking)
	assert.Equal(t, "Thesis", st.ProjectName)

	result, err = srv.handleStartTracking(ctx, callToolReq("wt_start_tracking",
		map[string]any{"project": "Thesis"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "already_tracking")

	clock.now = clock.now.Add(90)
	result, err = srv.handleTrackingStatus(ctx, callToolReq("wt_tracking_status", nil))
	require.NoError(t, err)
	resultJSON(t, result, &st)
	assert.Equal(t, int64(90), st.ElapsedSeconds)

	result, err = srv.handleStopTracking(ctx, callToolReq("wt_stop_tracking", nil))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var stop engine.StopResult
	resultJSON(t, result, &stop)
	require.NotNil(t, stop.Session)
	assert.Equal(t, int64(90), stop.Session.Seconds)
	require.NotNil(t, stop.Session.ActivityType)
	assert.Equal(t, "PROGETTAZIONE", *stop.Session.ActivityType)
}

func TestHandleStartTracking_MissingProject(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result, err := srv.handleStartTracking(context.Background(), callToolReq("wt_start_tracking", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "missing required parameter")

	result, err = srv.handleStartTracking(context.Background(),
		callToolReq("wt_start_tracking", map[string]any{"project": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "project not found")
}

func TestHandleAttributeIdle(t *testing.T) {
	srv, s, clock := newTestServer(t)
	p := addProject(t, s, "Thesis")
	ctx := context.Background()

	result, err := srv.handleAttributeIdle(ctx, callToolReq("wt_attribute_idle", map[string]any{"break": true}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no_pending_idle")

	_, err = srv.tracker.StartTracking(ctx, p.ID, nil)
	require.NoError(t, err)
	clock.now = clock.now.Add(12 * 60)
	require.NoError(t, srv.tracker.Tick(ctx, "editor"))

	result, err = srv.handleCheckIdle(ctx, callToolReq("wt_check_idle", nil))
	require.NoError(t, err)
	var idle struct {
		Pending *engine.PendingIdlePeriod `json:"pending"`
	}
	resultJSON(t, result, &idle)
	require.NotNil(t, idle.Pending)
	assert.Equal(t, int64(12), idle.Pending.Minutes)

	result, err = srv.handleAttributeIdle(ctx, callToolReq("wt_attribute_idle", map[string]any{"project": "Thesis"}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var sess models.Session
	resultJSON(t, result, &sess)
	assert.Equal(t, int64(720), sess.Seconds)
	assert.Equal(t, models.SessionTypeOffComputer, sess.Type)
	assert.Nil(t, srv.tracker.CheckPending())
}

func TestHandleAttributeIdle_RequiresTarget(t *testing.T) {
	srv, _, _ := newTestServer(t)

	result, err := srv.handleAttributeIdle(context.Background(), callToolReq("wt_attribute_idle", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleTimeline(t *testing.T) {
	srv, s, _ := newTestServer(t)
	p := addProject(t, s, "Thesis")
	ts, err := wallclock.Parse("2025-01-15 09:00:00")
	require.NoError(t, err)
	require.NoError(t, s.CreateSession(context.Background(), &models.Session{
		ProjectID: p.ID, AppName: "editor", Seconds: 1800, Type: models.SessionTypeComputer, Timestamp: ts,
	}))

	result, err := srv.handleTimeline(context.Background(), callToolReq("wt_timeline",
		map[string]any{"start": "2025-01-15"}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var tl timeline.Timeline
	resultJSON(t, result, &tl)
	assert.Equal(t, int64(1800), tl.TotalSeconds)
	assert.Len(t, tl.Lanes, 1)

	result, err = srv.handleTimeline(context.Background(), callToolReq("wt_timeline",
		map[string]any{"start": "2025-01-20", "end": "2025-01-10"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid_range")
}

func TestHandleStats(t *testing.T) {
	srv, s, _ := newTestServer(t)
	p := addProject(t, s, "Thesis")
	ts, err := wallclock.Parse("2025-01-15 09:00:00")
	require.NoError(t, err)
	require.NoError(t, s.CreateSession(context.Background(), &models.Session{
		ProjectID: p.ID, AppName: "editor", Seconds: 1800, Type: models.SessionTypeComputer, Timestamp: ts,
	}))

	result, err := srv.handleStats(context.Background(), callToolReq("wt_stats",
		map[string]any{"date": "2025-01-15", "limit": float64(3)}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var st timeline.Stats
	resultJSON(t, result, &st)
	assert.Equal(t, int64(1800), st.Month.TotalSeconds)
	require.Len(t, st.TopApps, 1)
	assert.Equal(t, "editor", st.TopApps[0].Name)

	result, err = srv.handleStats(context.Background(), callToolReq("wt_stats",
		map[string]any{"date": "yesterday"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid_range")
}

func TestHandleSplitSession(t *testing.T) {
	srv, s, _ := newTestServer(t)
	p := addProject(t, s, "Thesis")
	ts, err := wallclock.Parse("2025-01-15 09:00:00")
	require.NoError(t, err)
	sess := &models.Session{ProjectID: p.ID, AppName: "editor", Seconds: 3600, Type: models.SessionTypeComputer, Timestamp: ts}
	require.NoError(t, s.CreateSession(context.Background(), sess))

	result, err := srv.handleSplitSession(context.Background(), callToolReq("wt_split_session",
		map[string]any{"session_id": sess.ID, "first_seconds": float64(1500), "second_activity_type": "ricerca"}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var res engine.SplitResult
	resultJSON(t, result, &res)
	assert.Equal(t, int64(1500), res.First.Seconds)
	assert.Equal(t, int64(2100), res.Second.Seconds)
	assert.Equal(t, res.First.End(), res.Second.Timestamp)
	require.NotNil(t, res.Second.ActivityType)
	assert.Equal(t, "RICERCA", *res.Second.ActivityType)

	result, err = srv.handleSplitSession(context.Background(), callToolReq("wt_split_session",
		map[string]any{"session_id": sess.ID, "first_seconds": float64(1500)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid_split")
}
