package http

import (
	"net/http"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

func (s *Server) handleSearchCustomers(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	customers, err := s.svc.Customers.Search(r.Context(), viewer, r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]*customerResponse, len(customers))
	for i, c := range customers {
		resp[i] = toCustomer(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Customers.Create(r.Context(), viewer, req.command())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomer(c))
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Customers.Get(r.Context(), viewer, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomer(c))
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Customers.Update(r.Context(), viewer, id, req.command())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomer(c))
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Customers.Delete(r.Context(), viewer, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
