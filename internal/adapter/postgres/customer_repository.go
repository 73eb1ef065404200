package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

type customerRepository struct {
	db DB
}

func NewCustomerRepository(db DB) interfaces.CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, cedula, full_name, phone, email, address, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (id, cedula, full_name, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Cedula, c.FullName, c.Phone, c.Email, c.Address, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err, "customers_cedula_key") {
		return fmt.Errorf("failed to create customer %s: %w", c.Cedula, domain.ErrDuplicateCedula)
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, lookupError("customer", err)
	}
	return c, nil
}

func (r *customerRepository) FindByCedula(ctx context.Context, cedula string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE cedula = $1`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, cedula))
	if err != nil {
		return nil, lookupError("customer", err)
	}
	return c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `
		UPDATE customers
		SET cedula = $1, full_name = $2, phone = $3, email = $4, address = $5, updated_at = $6
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query, c.Cedula, c.FullName, c.Phone, c.Email, c.Address, c.UpdatedAt, c.ID)
	if isUniqueViolation(err, "customers_cedula_key") {
		return fmt.Errorf("failed to update customer %s: %w", c.Cedula, domain.ErrDuplicateCedula)
	}
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *customerRepository) Search(ctx context.Context, query string, limit int) ([]*domain.Customer, error) {
	sql := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE $1 = '' OR cedula ILIKE $2 OR full_name ILIKE $2 OR phone ILIKE $2
		ORDER BY full_name
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, sql, query, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *customerRepository) CountOrders(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM service_orders WHERE customer_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count customer orders: %w", err)
	}
	return count, nil
}

func scanCustomer(row Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Cedula, &c.FullName, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
