package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// Broadcaster pushes an encoded change message to realtime clients.
type Broadcaster interface {
	Broadcast(data []byte)
}

// ChangeHandler forwards order changes received from the broker to the
// realtime hub of this process.
type ChangeHandler struct {
	hub    Broadcaster
	logger logger.Logger
}

func NewChangeHandler(hub Broadcaster, logger logger.Logger) *ChangeHandler {
	return &ChangeHandler{
		hub:    hub,
		logger: logger,
	}
}

func (h *ChangeHandler) HandleChange(ctx context.Context, body []byte) error {
	var msg interfaces.OrderChangeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order change", "", nil, err)
		return err
	}
	if msg.OrderNumber == "" || msg.Event == "" {
		return fmt.Errorf("order change without order number or event")
	}

	h.hub.Broadcast(body)

	h.logger.Debug("change_forwarded", fmt.Sprintf("Forwarded %s for order %s", msg.Event, msg.OrderNumber),
		"", map[string]interface{}{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
		})
	return nil
}
