package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.order_number, o.customer_id, o.device_type, o.brand, o.model, o.serial_number,
	       o.accessories, o.problem_description, o.observations, o.technician_notes, o.estimated_cost,
	       o.priority, o.status, o.sede, o.received_by, o.assigned_to,
	       o.created_at, o.updated_at, o.started_at, o.completed_at, o.delivered_at,
	       c.cedula, c.full_name, c.phone, c.email, c.address,
	       t.full_name
	FROM service_orders o
	JOIN customers c ON c.id = o.customer_id
	LEFT JOIN profiles t ON t.id = o.assigned_to
`

// CreateBatch inserts all orders and their initial status log in one
// transaction.
func (r *orderRepository) CreateBatch(ctx context.Context, orders []*domain.ServiceOrder, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO service_orders (id, order_number, customer_id, device_type, brand, model, serial_number,
		                            accessories, problem_description, observations, technician_notes,
		                            estimated_cost, priority, status, sede, received_by, assigned_to,
		                            created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	for _, o := range orders {
		_, err = tx.Exec(ctx, query,
			o.ID, o.Number, o.CustomerID, o.DeviceType, o.Brand, o.Model, o.SerialNumber,
			o.Accessories, o.ProblemDescription, o.Observations, o.TechnicianNotes,
			o.EstimatedCost, o.Priority, o.Status, o.Sede, o.ReceivedBy, o.AssignedTo,
			o.CreatedAt, o.UpdatedAt,
		)
		if isUniqueViolation(err, "service_orders_order_number_key") {
			return fmt.Errorf("failed to insert order %s: %w", o.Number, domain.ErrDuplicateOrderNumber)
		}
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		if err := insertStatusLog(ctx, tx, o, changedBy, nil); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) ExistsNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM service_orders WHERE order_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check order number: %w", err)
	}
	return exists, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ServiceOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, lookupError("order", err)
	}
	return o, nil
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.ServiceOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.order_number = $1`, number))
	if err != nil {
		return nil, lookupError("order", err)
	}
	return o, nil
}

func (r *orderRepository) List(ctx context.Context, filter interfaces.OrderFilter) ([]*domain.ServiceOrder, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "o.status = "+arg(filter.Status))
	}
	if filter.Sede != "" {
		conds = append(conds, "o.sede = "+arg(filter.Sede))
	}
	if filter.CustomerID != nil {
		conds = append(conds, "o.customer_id = "+arg(*filter.CustomerID))
	}
	if filter.VisibleTo != nil {
		conds = append(conds, fmt.Sprintf("((o.status = 'pending' AND o.assigned_to IS NULL) OR o.assigned_to = %s)", arg(*filter.VisibleTo)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := arg("%" + q + "%")
		conds = append(conds, fmt.Sprintf(
			"(o.order_number ILIKE %[1]s OR c.full_name ILIKE %[1]s OR c.cedula ILIKE %[1]s OR o.serial_number ILIKE %[1]s)", p))
	}

	query := orderSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY o.priority = 'urgent' DESC, o.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.ServiceOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatusWithLog persists the order and appends its status to the log.
func (r *orderRepository) UpdateStatusWithLog(ctx context.Context, o *domain.ServiceOrder, changedBy string, notes *string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := updateOrder(ctx, tx, o); err != nil {
		return err
	}
	if err := insertStatusLog(ctx, tx, o, changedBy, notes); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM service_orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt, &log.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func updateOrder(ctx context.Context, q querier, o *domain.ServiceOrder) error {
	query := `
		UPDATE service_orders
		SET brand = $1, model = $2, serial_number = $3, accessories = $4, problem_description = $5,
		    observations = $6, technician_notes = $7, estimated_cost = $8, priority = $9, status = $10,
		    assigned_to = $11, updated_at = $12, started_at = $13, completed_at = $14, delivered_at = $15
		WHERE id = $16
	`
	tag, err := q.Exec(ctx, query,
		o.Brand, o.Model, o.SerialNumber, o.Accessories, o.ProblemDescription,
		o.Observations, o.TechnicianNotes, o.EstimatedCost, o.Priority, o.Status,
		o.AssignedTo, o.UpdatedAt, o.StartedAt, o.CompletedAt, o.DeliveredAt,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", o.ID, domain.ErrNotFound)
	}
	return nil
}

func insertStatusLog(ctx context.Context, q querier, o *domain.ServiceOrder, changedBy string, notes *string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := q.Exec(ctx, query, o.ID, o.Status, changedBy, o.UpdatedAt, notes); err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}

func scanOrder(row Row) (*domain.ServiceOrder, error) {
	var (
		o              domain.ServiceOrder
		c              domain.Customer
		technicianName *string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.DeviceType, &o.Brand, &o.Model, &o.SerialNumber,
		&o.Accessories, &o.ProblemDescription, &o.Observations, &o.TechnicianNotes, &o.EstimatedCost,
		&o.Priority, &o.Status, &o.Sede, &o.ReceivedBy, &o.AssignedTo,
		&o.CreatedAt, &o.UpdatedAt, &o.StartedAt, &o.CompletedAt, &o.DeliveredAt,
		&c.Cedula, &c.FullName, &c.Phone, &c.Email, &c.Address,
		&technicianName,
	)
	if err != nil {
		return nil, err
	}

	c.ID = o.CustomerID
	o.Customer = &c
	if o.AssignedTo != nil && technicianName != nil {
		o.Technician = &domain.Profile{ID: *o.AssignedTo, FullName: *technicianName}
	}
	return &o, nil
}
