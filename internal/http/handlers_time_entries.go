package http

import (
	"net/http"
	"time"

	"tempo/internal/core"
)

func (s *Server) handleListTimeEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	switch {
	case q.Get("user_id") != "":
		writeJSON(w, http.StatusOK, s.data.TimeEntries.GetByUserID(ctx, q.Get("user_id")))
	case q.Get("customer_id") != "":
		writeJSON(w, http.StatusOK, s.data.TimeEntries.GetByCustomerID(ctx, q.Get("customer_id")))
	case q.Get("project_id") != "":
		writeJSON(w, http.StatusOK, s.data.TimeEntries.GetByProjectID(ctx, q.Get("project_id")))
	default:
		writeJSON(w, http.StatusOK, s.data.TimeEntries.GetAll(ctx))
	}
}

func (s *Server) handleCreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var in core.NewTimeEntry
	if !decodeBody(w, r, &in) {
		return
	}
	in.Description = sanitizeInput(in.Description)
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created := s.data.TimeEntries.Create(r.Context(), in)
	if created == nil {
		writeError(w, http.StatusInternalServerError, "failed to save time entry")
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	var in core.TimeEntryUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Description != nil {
		clean := sanitizeInput(*in.Description)
		in.Description = &clean
	}

	updated := s.data.TimeEntries.Update(r.Context(), r.PathValue("id"), in)
	if updated == nil {
		writeError(w, http.StatusNotFound, "time entry not found")
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	if ok := s.data.TimeEntries.Delete(r.Context(), r.PathValue("id")); !ok {
		writeError(w, http.StatusInternalServerError, "failed to delete time entry")
		return
	}
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

type stopTimerRequest struct {
	Description    string `json:"description"`
	ProjectID      string `json:"project_id"`
	CustomerID     string `json:"customer_id"`
	UserID         string `json:"user_id"`
	Billable       bool   `json:"billable"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}

// handleStopTimer converts a finished timer run into a stored time entry.
// The server clock decides the end time; the client only reports how long
// the timer ran.
func (s *Server) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	var in stopTimerRequest
	if !decodeBody(w, r, &in) {
		return
	}
	if in.ElapsedSeconds <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "elapsed_seconds must be positive")
		return
	}

	// A timer started on a project without an explicit customer inherits
	// the project's customer.
	if in.CustomerID == "" && in.ProjectID != "" {
		if project := s.data.Projects.GetByID(r.Context(), in.ProjectID); project != nil {
			in.CustomerID = project.CustomerID
		}
	}

	entry := core.EntryFromTimer(time.Now(), in.ElapsedSeconds,
		sanitizeInput(in.Description), in.ProjectID, in.CustomerID, in.UserID, in.Billable)
	if err := entry.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created := s.data.TimeEntries.Create(r.Context(), entry)
	if created == nil {
		writeError(w, http.StatusInternalServerError, "failed to save time entry")
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, created)
}
