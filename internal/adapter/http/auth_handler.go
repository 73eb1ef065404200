package http

import (
	"net/http"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.startSession(w, r, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(p))
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.svc.Auth.AcceptInvite(r.Context(), interfaces.AcceptInviteCommand{
		Token:    req.Token,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.startSession(w, r, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfile(p))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Невалидная cookie всё равно перезаписывается
	session, _ := s.sessions.Get(r, sessionName)
	s.clearSession(w, r, session)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	p, err := s.svc.Auth.Profile(r.Context(), viewer.ProfileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(p))
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, p *domain.Profile) error {
	session, _ := s.sessions.Get(r, sessionName)
	session.Values[sessionKeyProfileID] = p.ID.String()
	return session.Save(r, w)
}
