package http

import (
	"net/http"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	profiles, err := s.svc.Admin.ListUsers(r.Context(), viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]profileResponse, len(profiles))
	for i, p := range profiles {
		resp[i] = toProfile(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Admin.UpdateUser(r.Context(), viewer, interfaces.UpdateUserCommand{
		ID:       id,
		FullName: req.FullName,
		Role:     req.Role,
		Sede:     req.Sede,
		Active:   req.Active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(p))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Admin.DeleteUser(r.Context(), viewer, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	invites, err := s.svc.Admin.ListInvites(r.Context(), viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]inviteResponse, len(invites))
	for i, inv := range invites {
		resp[i] = toInvite(inv)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateInvite returns the plain token once; only its hash is stored.
func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	var req createInviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	inv, token, err := s.svc.Admin.CreateInvite(r.Context(), viewer, interfaces.CreateInviteCommand{
		Email: req.Email,
		Role:  req.Role,
		Sede:  req.Sede,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := toInvite(inv)
	resp.Token = token
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevokeInvite(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Admin.RevokeInvite(r.Context(), viewer, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
