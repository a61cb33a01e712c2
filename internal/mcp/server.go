package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/timeline"
	"github.com/joescharf/worktime/internal/wallclock"
)

// Server exposes the tracking engine as MCP tools.
type Server struct {
	store     store.Store
	tracker   *engine.Tracker
	editor    *engine.Editor
	timelines *timeline.Service
	version   string
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(s store.Store, tracker *engine.Tracker, editor *engine.Editor, tl *timeline.Service, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{
		store:     s,
		tracker:   tracker,
		editor:    editor,
		timelines: tl,
		version:   version,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("worktime", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.trackingStatusTool())
	srv.AddTool(s.startTrackingTool())
	srv.AddTool(s.stopTrackingTool())
	srv.AddTool(s.checkIdleTool())
	srv.AddTool(s.attributeIdleTool())
	srv.AddTool(s.timelineTool())
	srv.AddTool(s.statsTool())
	srv.AddTool(s.splitSessionTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// HTTPHandler serves the same tools over streamable HTTP, for mounting in the daemon.
func (s *Server) HTTPHandler() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.MCPServer())
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// wt_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_list_projects",
		mcp.WithDescription("List projects. Returns a JSON array with id, name, description and status."),
		mcp.WithString("status", mcp.Description("Filter by status: active or archived")),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := models.ProjectStatus(request.GetString("status", ""))
	projects, err := s.store.ListProjects(ctx, status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	type projectOut struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}

	out := make([]projectOut, len(projects))
	for i, p := range projects {
		out[i] = projectOut{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      string(p.Status),
		}
	}
	return jsonResult(out)
}

// wt_tracking_status
func (s *Server) trackingStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_tracking_status",
		mcp.WithDescription("Get the current tracking status: project, elapsed active seconds, idle threshold and any pending idle period."),
	)
	return tool, s.handleTrackingStatus
}

func (s *Server) handleTrackingStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.tracker.Status())
}

// wt_start_tracking
func (s *Server) startTrackingTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_start_tracking",
		mcp.WithDescription("Start tracking time on a project. Fails if tracking is already running."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name or ID")),
		mcp.WithString("activity_type", mcp.Description("Activity type name, e.g. RICERCA")),
	)
	return tool, s.handleStartTracking
}

func (s *Server) handleStartTracking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: project"), nil
	}
	p, err := s.resolveProject(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st, err := s.tracker.StartTracking(ctx, p.ID, models.StringPtr(request.GetString("activity_type", "")))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st)
}

// wt_stop_tracking
func (s *Server) stopTrackingTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_stop_tracking",
		mcp.WithDescription("Stop tracking and persist the session. Returns the session and any pending idle period awaiting attribution."),
	)
	return tool, s.handleStopTracking
}

func (s *Server) handleStopTracking(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.tracker.StopTracking(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

// wt_check_idle
func (s *Server) checkIdleTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_check_idle",
		mcp.WithDescription("Return the pending idle period, or null when there is none."),
	)
	return tool, s.handleCheckIdle
}

func (s *Server) handleCheckIdle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"pending": s.tracker.CheckPending()})
}

// wt_attribute_idle
func (s *Server) attributeIdleTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_attribute_idle",
		mcp.WithDescription("Resolve the pending idle period: book it as off-computer time on a project, or discard it as a break."),
		mcp.WithString("project", mcp.Description("Project name or ID to attribute the idle time to")),
		mcp.WithBoolean("break", mcp.Description("Discard the idle period as a break instead")),
	)
	return tool, s.handleAttributeIdle
}

func (s *Server) handleAttributeIdle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetBool("break", false) {
		resolved, err := s.tracker.AttributeAsBreak()
		if err != nil {
			return toolError(err), nil
		}
		return jsonResult(resolved)
	}

	name := request.GetString("project", "")
	if name == "" {
		return mcp.NewToolResultError("either project or break=true is required"), nil
	}
	p, err := s.resolveProject(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.tracker.AttributeToProject(ctx, p.ID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(sess)
}

// wt_timeline
func (s *Server) timelineTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_timeline",
		mcp.WithDescription("Aggregate sessions into per-project lanes, time markers and totals for a date range."),
		mcp.WithString("start", mcp.Description("Start date YYYY-MM-DD (default today)")),
		mcp.WithString("end", mcp.Description("End date YYYY-MM-DD (default start)")),
	)
	return tool, s.handleTimeline
}

func (s *Server) handleTimeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := request.GetString("start", wallclock.Now().FormatDate())
	end := request.GetString("end", start)

	tl, err := s.timelines.GetTimeline(ctx, start, end)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(tl)
}

// wt_stats
func (s *Server) statsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_stats",
		mcp.WithDescription("Time tracked today, this week and this month, with the most used apps of the day."),
		mcp.WithString("date", mcp.Description("Anchor day YYYY-MM-DD (default today)")),
		mcp.WithNumber("limit", mcp.Description("Number of top apps (default 5)")),
	)
	return tool, s.handleStats
}

func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	anchor, err := timeline.ParseAnchor(request.GetString("date", ""))
	if err != nil {
		return toolError(err), nil
	}
	st, err := s.timelines.Stats(ctx, anchor, request.GetInt("limit", 0))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st)
}

// wt_split_session
func (s *Server) splitSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("wt_split_session",
		mcp.WithDescription("Split a session in two at first_seconds. The parts keep the total duration and are contiguous."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("first_seconds", mcp.Required(), mcp.Description("Duration of the first part in seconds")),
		mcp.WithString("first_activity_type", mcp.Description("Activity type of the first part")),
		mcp.WithString("second_activity_type", mcp.Description("Activity type of the second part")),
	)
	return tool, s.handleSplitSession
}

func (s *Server) handleSplitSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	first, err := request.RequireFloat("first_seconds")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: first_seconds"), nil
	}

	res, err := s.editor.Split(ctx, id, int64(first),
		models.StringPtr(request.GetString("first_activity_type", "")),
		models.StringPtr(request.GetString("second_activity_type", "")))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// resolveProject finds a project by name, then by ID.
func (s *Server) resolveProject(ctx context.Context, name string) (*models.Project, error) {
	if p, err := s.store.GetProjectByName(ctx, name); err == nil {
		return p, nil
	}
	if p, err := s.store.GetProject(ctx, name); err == nil {
		return p, nil
	}
	return nil, fmt.Errorf("project not found: %s", name)
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("[%s] %v", engine.Code(err), err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
