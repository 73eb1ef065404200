package http

import (
	"net/http"
	"time"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

const wsReadLimit = 512

// handleOrdersSocket upgrades the connection and registers it with the hub.
// Clients only receive; the read loop exists to notice disconnects.
func (s *Server) handleOrdersSocket(w http.ResponseWriter, r *http.Request, viewer domain.Viewer) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		s.logger.Info("ws_upgrade_failed", "WebSocket upgrade failed", logger.RequestID(r.Context()), map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := s.realtime.Register(viewer.ProfileID, conn); err != nil {
		s.logger.Info("ws_register_rejected", "Realtime client rejected", logger.RequestID(r.Context()), map[string]interface{}{
			"profile_id": viewer.ProfileID.String(),
			"error":      err.Error(),
		})
		return
	}
	defer s.realtime.Unregister(conn)

	// Сервер мог выставить дедлайн чтения до hijack
	_ = conn.SetReadDeadline(time.Time{})
	conn.SetReadLimit(wsReadLimit)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
