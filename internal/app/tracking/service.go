package tracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

type Service struct {
	orders          interfaces.OrderRepository
	profiles        interfaces.ProfileRepository
	clock           clockwork.Clock
	presenceTimeout time.Duration
	logger          logger.Logger
}

func NewService(orders interfaces.OrderRepository, profiles interfaces.ProfileRepository, clock clockwork.Clock, presenceTimeout time.Duration, logger logger.Logger) *Service {
	return &Service{
		orders:          orders,
		profiles:        profiles,
		clock:           clock,
		presenceTimeout: presenceTimeout,
		logger:          logger,
	}
}

func (s *Service) findByNumber(ctx context.Context, orderNumber string) (*domain.ServiceOrder, error) {
	number := strings.ToUpper(strings.TrimSpace(orderNumber))
	if !domain.IsOrderNumber(number) {
		return nil, fmt.Errorf("order %q: %w", orderNumber, domain.ErrNotFound)
	}
	return s.orders.FindByNumber(ctx, number)
}

// GetOrderStatus is the public lookup: no customer data is returned.
func (s *Service) GetOrderStatus(ctx context.Context, orderNumber string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.findByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	resp := &interfaces.TrackingOrderResponse{
		OrderNumber:   order.Number,
		CurrentStatus: order.Status,
		DeviceType:    order.DeviceType,
		UpdatedAt:     order.UpdatedAt,
		DeliveredAt:   order.DeliveredAt,
	}
	if order.Technician != nil {
		name := order.Technician.FullName
		resp.TechnicianName = &name
	}
	return resp, nil
}

func (s *Service) GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error) {
	order, err := s.findByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, order.ID)
}

// GetTechniciansStatus lists technicians with presence and workload. Only
// staff who assign work may see it.
func (s *Service) GetTechniciansStatus(ctx context.Context, viewer domain.Viewer) ([]*interfaces.TrackingTechnicianResponse, error) {
	if !viewer.Can(domain.PermAssignTechnicians) {
		return nil, domain.ErrForbidden
	}

	workloads, err := s.profiles.TechnicianWorkloads(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resp := make([]*interfaces.TrackingTechnicianResponse, 0, len(workloads))
	for _, w := range workloads {
		resp = append(resp, &interfaces.TrackingTechnicianResponse{
			ProfileID:       w.ProfileID,
			FullName:        w.FullName,
			Sede:            w.Sede,
			Status:          w.Presence(now, s.presenceTimeout),
			ActiveOrders:    w.ActiveOrders,
			CompletedOrders: w.CompletedOrders,
			LastSeen:        w.LastSeenAt,
		})
	}
	return resp, nil
}
