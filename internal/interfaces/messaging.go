package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

type ChangeEvent string

const (
	ChangeInsert ChangeEvent = "INSERT"
	ChangeUpdate ChangeEvent = "UPDATE"
	ChangeDelete ChangeEvent = "DELETE"
)

// Сообщения RabbitMQ
type OrderChangeMessage struct {
	Event       ChangeEvent   `json:"event"`
	OrderID     uuid.UUID     `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	OldStatus   domain.Status `json:"old_status,omitempty"`
	NewStatus   domain.Status `json:"new_status"`
	ChangedBy   string        `json:"changed_by"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type ChangePublisher interface {
	PublishOrderChange(ctx context.Context, msg OrderChangeMessage) error
}

type ChangeConsumer interface {
	ConsumeOrderChanges(ctx context.Context, handler ChangeHandler) error
}

type ChangeHandler func(ctx context.Context, body []byte) error
