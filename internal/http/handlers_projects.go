package http

import (
	"net/http"

	"tempo/internal/core"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if customerID := r.URL.Query().Get("customer_id"); customerID != "" {
		writeJSON(w, http.StatusOK, s.data.Projects.GetByCustomerID(ctx, customerID))
		return
	}
	writeJSON(w, http.StatusOK, s.data.Projects.GetAll(ctx))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project := s.data.Projects.GetByID(r.Context(), r.PathValue("id"))
	if project == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in core.NewProject
	if !decodeBody(w, r, &in) {
		return
	}
	in.Name = sanitizeInput(in.Name)
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created := s.data.Projects.Create(r.Context(), in)
	if created == nil {
		writeError(w, http.StatusInternalServerError, "failed to save project")
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, created)
}
