package http

import (
	"net/http"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

func (s *Server) handleTrackStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Tracking.GetOrderStatus(r.Context(), r.PathValue("number"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTracking(result))
}

func (s *Server) handleTrackHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.Tracking.GetOrderHistory(r.Context(), r.PathValue("number"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistory(history))
}

func (s *Server) handleTechniciansStatus(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	technicians, err := s.svc.Tracking.GetTechniciansStatus(r.Context(), viewer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]technicianStatusResponse, len(technicians))
	for i, t := range technicians {
		resp[i] = technicianStatusResponse{
			ProfileID:       t.ProfileID,
			FullName:        t.FullName,
			Sede:            t.Sede,
			Status:          t.Status,
			ActiveOrders:    t.ActiveOrders,
			CompletedOrders: t.CompletedOrders,
			LastSeen:        t.LastSeen,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
