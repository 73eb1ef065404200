package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/metrics"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

const (
	maxDevicesPerIntake = 20
	maxInsertAttempts   = 3
	defaultListLimit    = 200
)

type Service struct {
	orders    interfaces.OrderRepository
	customers interfaces.CustomerRepository
	profiles  interfaces.ProfileRepository
	publisher interfaces.ChangePublisher
	numbers   *domain.OrderNumberGenerator
	clock     clockwork.Clock
	logger    logger.Logger
	metrics   *metrics.OrderMetrics
}

func NewService(
	orders interfaces.OrderRepository,
	customers interfaces.CustomerRepository,
	profiles interfaces.ProfileRepository,
	publisher interfaces.ChangePublisher,
	clock clockwork.Clock,
	logger logger.Logger,
	m *metrics.OrderMetrics,
) *Service {
	return &Service{
		orders:    orders,
		customers: customers,
		profiles:  profiles,
		publisher: publisher,
		numbers:   domain.NewOrderNumberGenerator(clock, orders.ExistsNumber),
		clock:     clock,
		logger:    logger,
		metrics:   m,
	}
}

// CreateOrders registers one service order per device for the same customer.
// All orders are stored in one transaction.
func (s *Service) CreateOrders(ctx context.Context, viewer domain.Viewer, cmd interfaces.CreateOrdersCommand) ([]*domain.ServiceOrder, error) {
	reqID := logger.RequestID(ctx)

	// 1. Проверки без обращения к хранилищу
	if !viewer.Can(domain.PermCreateOrders) {
		return nil, domain.ErrForbidden
	}
	if len(cmd.Devices) == 0 {
		return nil, domain.NewValidationError("devices", "at least one device is required")
	}
	if len(cmd.Devices) > maxDevicesPerIntake {
		return nil, domain.NewValidationError("devices", fmt.Sprintf("at most %d devices per intake", maxDevicesPerIntake))
	}

	sede := strings.TrimSpace(cmd.Sede)
	if sede == "" {
		sede = viewer.Sede
	}

	now := s.clock.Now()
	receivedBy := viewer.ProfileID
	orders := make([]*domain.ServiceOrder, 0, len(cmd.Devices))
	for i, d := range cmd.Devices {
		o, err := domain.NewServiceOrder(cmd.CustomerID, d, sede, &receivedBy, now)
		if err != nil {
			s.logger.Debug("validation_failed", fmt.Sprintf("Device %d is invalid", i+1), reqID, nil)
			return nil, fmt.Errorf("device %d: %w", i+1, err)
		}
		orders = append(orders, o)
	}

	// 2. Клиент должен существовать
	customer, err := s.customers.FindByID(ctx, cmd.CustomerID)
	if err != nil {
		return nil, err
	}

	// 3. Номера заказов и сохранение одной транзакцией
	for attempt := 1; ; attempt++ {
		s.assignNumbers(ctx, orders)

		err = s.orders.CreateBatch(ctx, orders, changedBy(viewer))
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateOrderNumber) || attempt == maxInsertAttempts {
			s.logger.Error("db_transaction_failed", "Failed to create service orders", reqID, nil, err)
			return nil, err
		}
		s.metrics.NumberCollision()
		s.logger.Info("order_number_collision", "Order number taken, regenerating", reqID, map[string]interface{}{
			"attempt": attempt,
		})
	}

	s.metrics.OrderCreated(len(orders))
	for _, o := range orders {
		o.Customer = customer
		s.publish(ctx, interfaces.ChangeInsert, o, "", viewer)
	}

	s.logger.Info("orders_created", fmt.Sprintf("Created %d service orders", len(orders)), reqID, map[string]interface{}{
		"customer_id": customer.ID.String(),
		"count":       len(orders),
		"sede":        sede,
	})
	return orders, nil
}

// assignNumbers gives every order a number distinct within the batch.
func (s *Service) assignNumbers(ctx context.Context, orders []*domain.ServiceOrder) {
	used := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		for {
			n := s.numbers.Next(ctx)
			if _, dup := used[n]; !dup {
				used[n] = struct{}{}
				o.Number = n
				break
			}
		}
	}
}

func (s *Service) GetOrder(ctx context.Context, viewer domain.Viewer, id uuid.UUID) (*domain.ServiceOrder, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Чужие заказы для техника не существуют
	if !viewer.CanSee(o) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

// ListOrders returns the orders of a queue view. Technicians are restricted
// in the query and the result is re-checked in memory.
func (s *Service) ListOrders(ctx context.Context, viewer domain.Viewer, q interfaces.ListOrdersQuery) ([]*domain.ServiceOrder, error) {
	view := q.View
	if view == "" {
		view = domain.QueueAll
	}

	filter := interfaces.OrderFilter{
		Status:     view.Status(),
		Query:      strings.TrimSpace(q.Query),
		CustomerID: q.CustomerID,
		Limit:      q.Limit,
	}
	if filter.Limit <= 0 || filter.Limit > defaultListLimit {
		filter.Limit = defaultListLimit
	}
	if viewer.Role == domain.RoleTechnician {
		id := viewer.ProfileID
		filter.VisibleTo = &id
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	visible := domain.FilterVisible(viewer, orders)
	result := visible[:0]
	for _, o := range visible {
		if view.Matches(o) {
			result = append(result, o)
		}
	}
	return result, nil
}

// UpdateOrder edits intake data. Technicians may only change notes and the
// estimated cost of orders assigned to them.
func (s *Service) UpdateOrder(ctx context.Context, viewer domain.Viewer, cmd interfaces.UpdateOrderCommand) (*domain.ServiceOrder, error) {
	o, err := s.GetOrder(ctx, viewer, cmd.ID)
	if err != nil {
		return nil, err
	}

	switch {
	case viewer.Can(domain.PermCreateOrders):
	case viewer.Can(domain.PermWorkOrders):
		if !o.IsAssignedTo(viewer.ProfileID) || touchesIntake(cmd) {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}

	applyUpdate(o, cmd)
	if err := deviceOf(o).Validate(); err != nil {
		return nil, err
	}
	o.UpdatedAt = s.clock.Now()

	notes := "Datos de la orden actualizados"
	if err := s.orders.UpdateStatusWithLog(ctx, o, changedBy(viewer), &notes); err != nil {
		return nil, err
	}

	s.publish(ctx, interfaces.ChangeUpdate, o, o.Status, viewer)
	return o, nil
}

func touchesIntake(cmd interfaces.UpdateOrderCommand) bool {
	return cmd.Brand != nil || cmd.Model != nil || cmd.SerialNumber != nil || cmd.Accessories != nil ||
		cmd.ProblemDescription != nil || cmd.Observations != nil || cmd.Priority != nil
}

func applyUpdate(o *domain.ServiceOrder, cmd interfaces.UpdateOrderCommand) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&o.Brand, cmd.Brand)
	set(&o.Model, cmd.Model)
	set(&o.SerialNumber, cmd.SerialNumber)
	set(&o.Accessories, cmd.Accessories)
	set(&o.ProblemDescription, cmd.ProblemDescription)
	set(&o.Observations, cmd.Observations)
	set(&o.TechnicianNotes, cmd.TechnicianNotes)
	if cmd.EstimatedCost != nil {
		cost := *cmd.EstimatedCost
		o.EstimatedCost = &cost
	}
	if cmd.Priority != nil {
		o.Priority = *cmd.Priority
	}
}

func deviceOf(o *domain.ServiceOrder) domain.Device {
	return domain.Device{
		DeviceType:         o.DeviceType,
		Brand:              o.Brand,
		Model:              o.Model,
		SerialNumber:       o.SerialNumber,
		Accessories:        o.Accessories,
		ProblemDescription: o.ProblemDescription,
		Observations:       o.Observations,
		EstimatedCost:      o.EstimatedCost,
		Priority:           o.Priority,
	}
}

func (s *Service) AssignTechnician(ctx context.Context, viewer domain.Viewer, orderID, technicianID uuid.UUID) (*domain.ServiceOrder, error) {
	if !viewer.Can(domain.PermAssignTechnicians) {
		return nil, domain.ErrForbidden
	}

	tech, err := s.profiles.FindByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("technician_id", "technician does not exist")
		}
		return nil, err
	}
	if tech.Role != domain.RoleTechnician || !tech.Active {
		return nil, domain.NewValidationError("technician_id", "profile is not an active technician")
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.Assign(tech.ID, s.clock.Now()); err != nil {
		return nil, err
	}

	notes := "Asignada a " + tech.FullName
	if err := s.orders.UpdateStatusWithLog(ctx, o, changedBy(viewer), &notes); err != nil {
		return nil, err
	}
	o.Technician = &domain.Profile{ID: tech.ID, FullName: tech.FullName}

	s.publish(ctx, interfaces.ChangeUpdate, o, o.Status, viewer)
	return o, nil
}

// ChangeStatus applies a status action: start (in_progress), release
// (pending), complete, deliver or cancel.
func (s *Service) ChangeStatus(ctx context.Context, viewer domain.Viewer, orderID uuid.UUID, status domain.Status, notes *string) (*domain.ServiceOrder, error) {
	reqID := logger.RequestID(ctx)

	// 1. Право на действие
	var perm domain.Permission
	switch status {
	case domain.StatusInProgress, domain.StatusPending, domain.StatusCompleted:
		perm = domain.PermWorkOrders
	case domain.StatusDelivered:
		perm = domain.PermDeliverOrders
	case domain.StatusCancelled:
		perm = domain.PermCreateOrders
	default:
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	if !viewer.Can(perm) {
		return nil, domain.ErrForbidden
	}

	// 2. Заказ должен быть виден пользователю
	o, err := s.GetOrder(ctx, viewer, orderID)
	if err != nil {
		return nil, err
	}

	// 3. Техник работает только со своими заказами
	if viewer.Role == domain.RoleTechnician && o.AssignedTo != nil && !o.IsAssignedTo(viewer.ProfileID) {
		return nil, domain.ErrForbidden
	}
	if viewer.Role == domain.RoleTechnician && status != domain.StatusInProgress && !o.IsAssignedTo(viewer.ProfileID) {
		return nil, domain.ErrForbidden
	}

	// 4. Переход состояния
	oldStatus := o.Status
	if err := o.TransitionTo(status, viewer.ProfileID, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("cannot change order %s from %s to %s: %w", o.Number, oldStatus, status, err)
	}

	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		if trimmed == "" {
			notes = nil
		} else {
			notes = &trimmed
		}
	}
	if err := s.orders.UpdateStatusWithLog(ctx, o, changedBy(viewer), notes); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to update order status", reqID, nil, err)
		return nil, err
	}
	s.metrics.StatusChanged(string(status))

	s.logger.Info("order_status_changed", fmt.Sprintf("Order %s: %s -> %s", o.Number, oldStatus, status), reqID, map[string]interface{}{
		"order_number": o.Number,
		"changed_by":   changedBy(viewer),
	})

	s.publish(ctx, interfaces.ChangeUpdate, o, oldStatus, viewer)
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error {
	if !viewer.Can(domain.PermDeleteRecords) {
		return domain.ErrForbidden
	}

	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("order_deleted", fmt.Sprintf("Order %s deleted", o.Number), logger.RequestID(ctx), map[string]interface{}{
		"deleted_by": changedBy(viewer),
	})
	s.publish(ctx, interfaces.ChangeDelete, o, o.Status, viewer)
	return nil
}

func (s *Service) History(ctx context.Context, viewer domain.Viewer, id uuid.UUID) ([]*domain.StatusLog, error) {
	if _, err := s.GetOrder(ctx, viewer, id); err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, id)
}

// publish sends a change event. Delivery failures are logged and never fail
// the operation that is already committed.
func (s *Service) publish(ctx context.Context, event interfaces.ChangeEvent, o *domain.ServiceOrder, oldStatus domain.Status, viewer domain.Viewer) {
	msg := interfaces.OrderChangeMessage{
		Event:       event,
		OrderID:     o.ID,
		OrderNumber: o.Number,
		OldStatus:   oldStatus,
		NewStatus:   o.Status,
		ChangedBy:   changedBy(viewer),
		Timestamp:   s.clock.Now(),
	}
	if err := s.publisher.PublishOrderChange(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order change", logger.RequestID(ctx), map[string]interface{}{
			"order_number": o.Number,
			"event":        string(event),
		}, err)
	}
}

func changedBy(viewer domain.Viewer) string {
	if viewer.FullName != "" {
		return viewer.FullName
	}
	return viewer.ProfileID.String()
}
