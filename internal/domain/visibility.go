package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Viewer is the authenticated identity every service call acts on behalf of.
type Viewer struct {
	ProfileID uuid.UUID
	Role      Role
	Sede      string
	FullName  string
}

func (v Viewer) Can(p Permission) bool {
	return v.Role.Can(p)
}

// CanSee reports whether the viewer may see the order. Technicians only see
// unassigned pending orders and orders assigned to themselves.
func (v Viewer) CanSee(o *ServiceOrder) bool {
	if v.Role != RoleTechnician {
		return true
	}
	if o.Status == StatusPending && o.AssignedTo == nil {
		return true
	}
	return o.IsAssignedTo(v.ProfileID)
}

// FilterVisible keeps the orders the viewer may see, preserving order.
func FilterVisible(v Viewer, orders []*ServiceOrder) []*ServiceOrder {
	visible := make([]*ServiceOrder, 0, len(orders))
	for _, o := range orders {
		if v.CanSee(o) {
			visible = append(visible, o)
		}
	}
	return visible
}

// QueueView is a status-based view of the work queue.
type QueueView string

const (
	QueueAll        QueueView = "all"
	QueuePending    QueueView = "pending"
	QueueInProgress QueueView = "in_progress"
	QueueCompleted  QueueView = "completed"
	QueueDelivered  QueueView = "delivered"
)

func ParseQueueView(s string) (QueueView, error) {
	switch v := QueueView(s); v {
	case "":
		return QueueAll, nil
	case QueueAll, QueuePending, QueueInProgress, QueueCompleted, QueueDelivered:
		return v, nil
	}
	return "", invalid("view", fmt.Sprintf("unknown queue view %q", s))
}

// Status returns the status the view selects, empty for all.
func (q QueueView) Status() Status {
	if q == QueueAll {
		return ""
	}
	return Status(q)
}

// Matches reports whether the order belongs to the view. Delivered orders
// leave the completed view.
func (q QueueView) Matches(o *ServiceOrder) bool {
	if q == QueueAll {
		return true
	}
	return o.Status == Status(q)
}
