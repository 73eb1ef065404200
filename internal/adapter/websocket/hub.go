package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/metrics"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

const (
	maxClients   = 500
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	profileID uuid.UUID
	conn      *websocket.Conn
	errCh     chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	data []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	profileID uuid.UUID
	conn      *websocket.Conn
	sendCh    chan []byte
	done      chan struct{}
}

func newClientWriter(profileID uuid.UUID, conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		profileID: profileID,
		conn:      conn,
		sendCh:    make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			_ = cw.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub fans order changes out to connected browsers. All state is owned by the
// run goroutine; the public API talks to it through cmdCh.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[*websocket.Conn]*clientWriter
	logger  logger.Logger
	metrics *metrics.WebSocketMetrics
}

// NewHub starts the hub. m may be nil.
func NewHub(logger logger.Logger, m *metrics.WebSocketMetrics) *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[*websocket.Conn]*clientWriter),
		logger:  logger,
		metrics: m,
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	if len(h.clients) >= maxClients {
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients (%d) reached", maxClients)
		return
	}

	h.clients[c.conn] = newClientWriter(c.profileID, c.conn)
	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
	}
	h.logger.Debug("ws_client_registered", "Realtime client registered", "", map[string]interface{}{
		"profile_id": c.profileID.String(),
		"clients":    len(h.clients),
	})
	c.errCh <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	if h.metrics != nil {
		h.metrics.ActiveConnections.Dec()
	}
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- c.data:
		default:
			slow = append(slow, conn)
		}
	}
	if h.metrics != nil {
		h.metrics.MessagesPublished.Inc()
	}

	for _, conn := range slow {
		h.logger.Info("ws_slow_client", "Disconnecting slow realtime client", "", map[string]interface{}{
			"profile_id": h.clients[conn].profileID.String(),
		})
		if h.metrics != nil {
			h.metrics.SlowDisconnects.Inc()
		}
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	for conn, cw := range h.clients {
		cw.stop()
		delete(h.clients, conn)
	}
	if h.metrics != nil {
		h.metrics.ActiveConnections.Set(0)
	}
}

// --- Public API ---

func (h *Hub) Register(profileID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{profileID: profileID, conn: conn, errCh: errCh}
	return <-errCh
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// Broadcast sends an already encoded change message to every client.
func (h *Hub) Broadcast(data []byte) {
	h.cmdCh <- cmdBroadcast{data: data}
}

// PublishOrderChange delivers msg to the connected clients of this process.
// It is used instead of the broker when RabbitMQ is not configured.
func (h *Hub) PublishOrderChange(ctx context.Context, msg interfaces.OrderChangeMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal change message: %w", err)
	}
	h.Broadcast(data)
	return nil
}

func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{replyCh: replyCh}
	return <-replyCh
}

func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}
