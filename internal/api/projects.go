package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/wallclock"
)

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	status := models.ProjectStatus(r.URL.Query().Get("status"))
	projects, err := s.store.ListProjects(r.Context(), status)
	if err != nil {
		writeErr(w, err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	p := &models.Project{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.store.CreateProject(r.Context(), p); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) archiveProject(w http.ResponseWriter, r *http.Request) {
	s.transitionProject(w, r, s.store.ArchiveProject)
}

func (s *Server) reactivateProject(w http.ResponseWriter, r *http.Request) {
	s.transitionProject(w, r, s.store.ReactivateProject)
}

func (s *Server) transitionProject(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) error) {
	id := r.PathValue("id")
	if err := apply(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) projectReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.timelines.ProjectReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// --- Activity Types ---

func (s *Server) listActivityTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListActivityTypes(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	if types == nil {
		types = []*models.ActivityType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) createActivityType(w http.ResponseWriter, r *http.Request) {
	var a models.ActivityType
	if !decode(w, r, &a) {
		return
	}
	a.Name = strings.TrimSpace(a.Name)
	if a.Pattern == "" {
		a.Pattern = models.PatternSolid
	}
	switch {
	case a.Name == "":
		writeError(w, http.StatusBadRequest, "name is required")
		return
	case !a.Pattern.Valid():
		writeError(w, http.StatusBadRequest, "pattern must be one of solid, stripes, dots")
		return
	case a.ColorVariant < -1 || a.ColorVariant > 1:
		writeError(w, http.StatusBadRequest, "color_variant must be within [-1.0, 1.0]")
		return
	}
	if err := s.store.CreateActivityType(r.Context(), &a); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) deleteActivityType(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteActivityType(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Notes ---

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeParams(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	notes, err := s.store.ListNotesInRange(r.Context(), rng.Start, rng.End)
	if err != nil {
		writeErr(w, err)
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

type createNoteRequest struct {
	ProjectID string             `json:"project_id"`
	Text      string             `json:"text"`
	Timestamp *wallclock.Instant `json:"timestamp"`
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ProjectID == "" || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "project_id and text are required")
		return
	}
	n := &models.Note{ProjectID: req.ProjectID, Text: req.Text, Timestamp: wallclock.Now()}
	if req.Timestamp != nil {
		n.Timestamp = *req.Timestamp
	}
	if _, err := s.store.GetProject(r.Context(), n.ProjectID); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.CreateNote(r.Context(), n); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteNote(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
