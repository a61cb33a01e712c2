package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/timeline"
)

// Server provides the REST API handlers.
type Server struct {
	store     store.Store
	tracker   *engine.Tracker
	editor    *engine.Editor
	timelines *timeline.Service
	logger    *slog.Logger
}

// NewServer creates a new API server. A nil logger uses slog.Default().
func NewServer(s store.Store, tracker *engine.Tracker, editor *engine.Editor, tl *timeline.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:     s,
		tracker:   tracker,
		editor:    editor,
		timelines: tl,
		logger:    logger,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", s.health)

	mux.HandleFunc("GET /api/v1/projects", s.listProjects)
	mux.HandleFunc("POST /api/v1/projects", s.createProject)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.getProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.deleteProject)
	mux.HandleFunc("POST /api/v1/projects/{id}/archive", s.archiveProject)
	mux.HandleFunc("POST /api/v1/projects/{id}/reactivate", s.reactivateProject)
	mux.HandleFunc("GET /api/v1/projects/{id}/report", s.projectReport)

	mux.HandleFunc("GET /api/v1/activity-types", s.listActivityTypes)
	mux.HandleFunc("POST /api/v1/activity-types", s.createActivityType)
	mux.HandleFunc("DELETE /api/v1/activity-types/{id}", s.deleteActivityType)

	mux.HandleFunc("GET /api/v1/notes", s.listNotes)
	mux.HandleFunc("POST /api/v1/notes", s.createNote)
	mux.HandleFunc("DELETE /api/v1/notes/{id}", s.deleteNote)

	mux.HandleFunc("GET /api/v1/tracking/status", s.trackingStatus)
	mux.HandleFunc("POST /api/v1/tracking/start", s.startTracking)
	mux.HandleFunc("POST /api/v1/tracking/stop", s.stopTracking)
	mux.HandleFunc("POST /api/v1/tracking/tick", s.tick)

	mux.HandleFunc("GET /api/v1/idle", s.checkIdle)
	mux.HandleFunc("POST /api/v1/idle/attribute", s.attributeIdle)
	mux.HandleFunc("POST /api/v1/idle/break", s.attributeBreak)

	mux.HandleFunc("GET /api/v1/settings/idle-threshold", s.getIdleThreshold)
	mux.HandleFunc("PUT /api/v1/settings/idle-threshold", s.setIdleThreshold)

	mux.HandleFunc("POST /api/v1/sessions", s.createSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.deleteSession)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/duration", s.updateDuration)
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/activity-type", s.updateActivityType)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/retime", s.retimeSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/split", s.splitSession)

	mux.HandleFunc("GET /api/v1/timeline", s.getTimeline)
	mux.HandleFunc("GET /api/v1/stats", s.getStats)

	mux.HandleFunc("GET /api/v1/events", s.listEvents)
	mux.HandleFunc("POST /api/v1/events/{id}/ack", s.ackEvent)

	return corsMiddleware(s.requestMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestMiddleware tags each request with an X-Request-ID and logs it.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Debug("http request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeErr renders an engine or store error with its status and code.
func writeErr(w http.ResponseWriter, err error) {
	code := engine.Code(err)
	if code == "internal" {
		switch {
		case errors.Is(err, store.ErrNotFound):
			code = "not_found"
		case errors.Is(err, store.ErrConflict):
			code = "conflict"
		case errors.Is(err, store.ErrUnavailable):
			code = "store_unavailable"
		}
	}
	writeJSON(w, statusFor(code), errorResponse{Error: err.Error(), Code: code})
}

func statusFor(code string) int {
	switch code {
	case "invalid_project", "invalid_duration", "invalid_split", "invalid_range", "invalid_threshold", "invalid_timestamp":
		return http.StatusBadRequest
	case "already_tracking", "not_tracking", "no_pending_idle", "conflict":
		return http.StatusConflict
	case "not_found":
		return http.StatusNotFound
	case "store_unavailable":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"is_tracking": s.tracker.Status().IsTracking,
	})
}
