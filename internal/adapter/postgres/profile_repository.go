package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

type profileRepository struct {
	db DB
}

func NewProfileRepository(db DB) interfaces.ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, email, full_name, role, sede, password_hash, active, last_seen_at, created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	return insertProfile(ctx, r.db, p)
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, lookupError("profile", err)
	}
	return p, nil
}

func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email))
	if err != nil {
		return nil, lookupError("profile", err)
	}
	return p, nil
}

func (r *profileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) Update(ctx context.Context, p *domain.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, role = $2, sede = $3, password_hash = $4, active = $5, updated_at = $6
		WHERE id = $7
	`
	tag, err := r.db.Exec(ctx, query, p.FullName, p.Role, p.Sede, p.PasswordHash, p.Active, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *profileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *profileRepository) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE profiles SET last_seen_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *profileRepository) TechnicianWorkloads(ctx context.Context) ([]*domain.TechnicianWorkload, error) {
	query := `
		SELECT p.id, p.full_name, p.sede, p.last_seen_at,
		       COUNT(o.id) FILTER (WHERE o.status = 'in_progress'),
		       COUNT(o.id) FILTER (WHERE o.status IN ('completed', 'delivered'))
		FROM profiles p
		LEFT JOIN service_orders o ON o.assigned_to = p.id
		WHERE p.role = 'technician' AND p.active
		GROUP BY p.id
		ORDER BY p.full_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list technicians: %w", err)
	}
	defer rows.Close()

	var workloads []*domain.TechnicianWorkload
	for rows.Next() {
		var w domain.TechnicianWorkload
		if err := rows.Scan(&w.ProfileID, &w.FullName, &w.Sede, &w.LastSeenAt, &w.ActiveOrders, &w.CompletedOrders); err != nil {
			return nil, fmt.Errorf("failed to scan technician: %w", err)
		}
		workloads = append(workloads, &w)
	}
	return workloads, rows.Err()
}

func insertProfile(ctx context.Context, q querier, p *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, role, sede, password_hash, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query, p.ID, p.Email, p.FullName, p.Role, p.Sede, p.PasswordHash, p.Active, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err, "profiles_email_key") {
		return fmt.Errorf("failed to create profile %s: %w", p.Email, domain.ErrDuplicateEmail)
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func scanProfile(row Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.Sede, &p.PasswordHash, &p.Active, &p.LastSeenAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
