package domain

import (
	"time"

	"github.com/google/uuid"
)

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceOffline PresenceStatus = "offline"
)

// TechnicianWorkload summarizes a technician's presence and queue load.
type TechnicianWorkload struct {
	ProfileID       uuid.UUID
	FullName        string
	Sede            string
	LastSeenAt      *time.Time
	ActiveOrders    int
	CompletedOrders int
}

// Presence checks if the technician is considered online based on last heartbeat
func (w *TechnicianWorkload) Presence(now time.Time, timeout time.Duration) PresenceStatus {
	if w.LastSeenAt == nil || now.Sub(*w.LastSeenAt) > timeout {
		return PresenceOffline
	}
	return PresenceOnline
}
