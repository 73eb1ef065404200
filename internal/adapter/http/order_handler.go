package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/apperrors"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// statusActions maps POST /api/orders/{id}/{action} to the target status.
var statusActions = map[string]domain.Status{
	"start":    domain.StatusInProgress,
	"release":  domain.StatusPending,
	"complete": domain.StatusCompleted,
	"deliver":  domain.StatusDelivered,
	"cancel":   domain.StatusCancelled,
}

func (s *Server) handleCreateOrders(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	var req createOrdersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	orders, err := s.svc.Orders.CreateOrders(r.Context(), viewer, req.command())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrders(orders))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	q := r.URL.Query()

	view, err := domain.ParseQueueView(q.Get("view"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	query := interfaces.ListOrdersQuery{
		View:  view,
		Query: q.Get("q"),
		Limit: limit,
	}
	if raw := q.Get("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.writeError(w, r, apperrors.ValidationError("invalid customer_id").WithContext("field", "customer_id"))
			return
		}
		query.CustomerID = &id
	}

	orders, err := s.svc.Orders.ListOrders(r.Context(), viewer, query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrders(orders))
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	o, err := s.svc.Orders.GetOrder(r.Context(), viewer, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	o, err := s.svc.Orders.UpdateOrder(r.Context(), viewer, interfaces.UpdateOrderCommand{
		ID:                 id,
		Brand:              req.Brand,
		Model:              req.Model,
		SerialNumber:       req.SerialNumber,
		Accessories:        req.Accessories,
		ProblemDescription: req.ProblemDescription,
		Observations:       req.Observations,
		TechnicianNotes:    req.TechnicianNotes,
		EstimatedCost:      req.EstimatedCost,
		Priority:           req.Priority,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.svc.Orders.DeleteOrder(r.Context(), viewer, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	history, err := s.svc.Orders.History(r.Context(), viewer, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistory(history))
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	o, err := s.svc.Orders.AssignTechnician(r.Context(), viewer, id, req.TechnicianID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(o))
}

func (s *Server) handleStatusAction(action string) viewerHandlerFunc {
	status := statusActions[action]
	return func(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var req statusRequest
		if err := decodeOptionalJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		o, err := s.svc.Orders.ChangeStatus(r.Context(), viewer, id, status, req.Notes)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrder(o))
	}
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	view, err := domain.ParseQueueView(r.URL.Query().Get("view"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snapshot, err := s.svc.Workshop.Queue(r.Context(), viewer, view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{
		View:   snapshot.View,
		Orders: toOrders(snapshot.Orders),
		Counts: snapshot.Counts,
	})
}
