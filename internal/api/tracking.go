package api

import (
	"net/http"
	"strconv"

	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/timeline"
	"github.com/joescharf/worktime/internal/wallclock"
)

// --- Tracking ---

func (s *Server) trackingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Status())
}

type startTrackingRequest struct {
	ProjectID    string  `json:"project_id"`
	ActivityType *string `json:"activity_type"`
}

func (s *Server) startTracking(w http.ResponseWriter, r *http.Request) {
	var req startTrackingRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.tracker.StartTracking(r.Context(), req.ProjectID, req.ActivityType)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) stopTracking(w http.ResponseWriter, r *http.Request) {
	res, err := s.tracker.StopTracking(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type tickRequest struct {
	AppName string `json:"app_name"`
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if err := s.tracker.Tick(r.Context(), req.AppName); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Status())
}

// --- Idle ---

func (s *Server) checkIdle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"pending": s.tracker.CheckPending()})
}

type attributeRequest struct {
	ProjectID string `json:"project_id"`
}

func (s *Server) attributeIdle(w http.ResponseWriter, r *http.Request) {
	var req attributeRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.tracker.AttributeToProject(r.Context(), req.ProjectID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) attributeBreak(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.tracker.AttributeAsBreak()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

// --- Settings ---

type thresholdBody struct {
	Minutes int `json:"minutes"`
}

func (s *Server) getIdleThreshold(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, thresholdBody{Minutes: s.tracker.IdleThreshold()})
}

func (s *Server) setIdleThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdBody
	if !decode(w, r, &req) {
		return
	}
	if err := s.tracker.SetIdleThreshold(r.Context(), req.Minutes); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdBody{Minutes: s.tracker.IdleThreshold()})
}

// --- Timeline ---

// rangeParams reads ?start=&end= dates, defaulting to today.
func rangeParams(r *http.Request) (timeline.Range, error) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" {
		start = wallclock.Now().FormatDate()
	}
	if end == "" {
		end = start
	}
	return timeline.ResolveRange(start, end)
}

func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeParams(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	tl, err := s.timelines.GetTimeline(r.Context(), rng.StartDate, rng.EndDate)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	anchor, err := timeline.ParseAnchor(q.Get("date"))
	if err != nil {
		writeErr(w, err)
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
	}
	st, err := s.timelines.Stats(r.Context(), anchor, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- Events ---

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EventFilter{UnackedOnly: q.Get("unacked") == "true"}
	if v := q.Get("after"); v != "" {
		after, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be an event id")
			return
		}
		filter.AfterID = after
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	events, err := s.tracker.Events(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	if events == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) ackEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	if err := s.tracker.AckEvent(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
