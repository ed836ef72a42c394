package http

import (
	"net/http"

	"tempo/internal/core"
)

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Customers.GetAll(r.Context()))
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer := s.data.Customers.GetByID(r.Context(), r.PathValue("id"))
	if customer == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in core.NewCustomer
	if !decodeBody(w, r, &in) {
		return
	}
	in.Name = sanitizeInput(in.Name)
	in.Email = sanitizeInput(in.Email)
	in.Company = sanitizeInput(in.Company)
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created := s.data.Customers.Create(r.Context(), in)
	if created == nil {
		writeError(w, http.StatusInternalServerError, "failed to save customer")
		return
	}
	s.summaryCache.Purge()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListCustomerProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Projects.GetByCustomerID(r.Context(), r.PathValue("id")))
}
