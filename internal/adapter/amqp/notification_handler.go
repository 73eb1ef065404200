package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// NotificationHandler prints every order change, for the subscriber command.
type NotificationHandler struct {
	out    io.Writer
	logger logger.Logger
}

func NewNotificationHandler(out io.Writer, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		out:    out,
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.OrderChangeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received %s for order %s", msg.Event, msg.OrderNumber),
		"", map[string]interface{}{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
		})

	switch msg.Event {
	case interfaces.ChangeInsert:
		fmt.Fprintf(h.out, "Order %s created by %s\n", msg.OrderNumber, msg.ChangedBy)
	case interfaces.ChangeDelete:
		fmt.Fprintf(h.out, "Order %s deleted by %s\n", msg.OrderNumber, msg.ChangedBy)
	default:
		if msg.OldStatus == msg.NewStatus {
			fmt.Fprintf(h.out, "Order %s updated by %s\n", msg.OrderNumber, msg.ChangedBy)
			return nil
		}
		fmt.Fprintf(h.out, "Order %s: status changed from '%s' to '%s' by %s\n",
			msg.OrderNumber, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	}
	return nil
}
