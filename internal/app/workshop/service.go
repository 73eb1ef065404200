package workshop

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

const (
	// HeartbeatInterval is the minimum time between two last_seen writes per profile.
	HeartbeatInterval = 30 * time.Second
	queueLimit        = 500
)

// Service serves the technician work queue and records staff presence.
type Service struct {
	orders   interfaces.OrderRepository
	profiles interfaces.ProfileRepository
	clock    clockwork.Clock
	logger   logger.Logger

	mu       sync.Mutex
	lastSeen map[uuid.UUID]time.Time
}

func NewService(orders interfaces.OrderRepository, profiles interfaces.ProfileRepository, clock clockwork.Clock, logger logger.Logger) *Service {
	return &Service{
		orders:   orders,
		profiles: profiles,
		clock:    clock,
		logger:   logger,
		lastSeen: make(map[uuid.UUID]time.Time),
	}
}

// Queue returns the orders of one view together with per-status counts of
// everything the viewer can see.
func (s *Service) Queue(ctx context.Context, viewer domain.Viewer, view domain.QueueView) (*interfaces.QueueSnapshot, error) {
	filter := interfaces.OrderFilter{Limit: queueLimit}
	if viewer.Role == domain.RoleTechnician {
		id := viewer.ProfileID
		filter.VisibleTo = &id
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	snapshot := &interfaces.QueueSnapshot{
		View:   view,
		Orders: make([]*domain.ServiceOrder, 0, len(orders)),
		Counts: make(map[domain.Status]int),
	}
	for _, o := range domain.FilterVisible(viewer, orders) {
		snapshot.Counts[o.Status]++
		if view.Matches(o) {
			snapshot.Orders = append(snapshot.Orders, o)
		}
	}
	return snapshot, nil
}

// Heartbeat records that the viewer is active. Writes are throttled to one
// per HeartbeatInterval per profile.
func (s *Service) Heartbeat(ctx context.Context, viewer domain.Viewer) error {
	now := s.clock.Now()

	s.mu.Lock()
	last, seen := s.lastSeen[viewer.ProfileID]
	if seen && now.Sub(last) < HeartbeatInterval {
		s.mu.Unlock()
		return nil
	}
	s.lastSeen[viewer.ProfileID] = now
	s.mu.Unlock()

	if err := s.profiles.TouchLastSeen(ctx, viewer.ProfileID, now); err != nil {
		// Следующий запрос попробует снова
		s.mu.Lock()
		delete(s.lastSeen, viewer.ProfileID)
		s.mu.Unlock()
		s.logger.Error("heartbeat_failed", "Failed to update heartbeat", logger.RequestID(ctx), nil, err)
		return err
	}

	s.logger.Debug("heartbeat_sent", "Heartbeat recorded", logger.RequestID(ctx), map[string]interface{}{
		"profile_id": viewer.ProfileID.String(),
	})
	return nil
}
