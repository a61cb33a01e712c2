package api

import (
	"net/http"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/wallclock"
)

// --- Sessions ---

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req engine.ManualSession
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.editor.CreateManual(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type durationRequest struct {
	Seconds int64 `json:"seconds"`
}

func (s *Server) updateDuration(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.editor.UpdateDuration(r.Context(), r.PathValue("id"), req.Seconds)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type activityTypeRequest struct {
	ActivityType *string `json:"activity_type"`
}

func (s *Server) updateActivityType(w http.ResponseWriter, r *http.Request) {
	var req activityTypeRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.editor.UpdateActivityType(r.Context(), r.PathValue("id"), req.ActivityType)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type retimeRequest struct {
	Timestamp    wallclock.Instant `json:"timestamp"`
	Seconds      int64             `json:"seconds"`
	ActivityType *string           `json:"activity_type"`
}

func (s *Server) retimeSession(w http.ResponseWriter, r *http.Request) {
	var req retimeRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.editor.Retime(r.Context(), r.PathValue("id"), req.Timestamp, req.Seconds, req.ActivityType)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type splitRequest struct {
	FirstSeconds       int64   `json:"first_seconds"`
	FirstActivityType  *string `json:"first_activity_type"`
	SecondActivityType *string `json:"second_activity_type"`
}

func (s *Server) splitSession(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.editor.Split(r.Context(), r.PathValue("id"), req.FirstSeconds, req.FirstActivityType, req.SecondActivityType)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
