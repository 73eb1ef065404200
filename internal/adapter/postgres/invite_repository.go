package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

type inviteRepository struct {
	db DB
}

func NewInviteRepository(db DB) interfaces.InviteRepository {
	return &inviteRepository{db: db}
}

const inviteColumns = `id, email, role, sede, token_hash, invited_by, expires_at, accepted_at, created_at`

func (r *inviteRepository) Create(ctx context.Context, inv *domain.PendingInvite) error {
	query := `
		INSERT INTO pending_invites (id, email, role, sede, token_hash, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, inv.ID, inv.Email, inv.Role, inv.Sede, inv.TokenHash, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt)
	if isUniqueViolation(err, "pending_invites_open_email_key") {
		return fmt.Errorf("failed to create invite for %s: %w", inv.Email, domain.ErrDuplicateEmail)
	}
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (r *inviteRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PendingInvite, error) {
	inv, err := scanInvite(r.db.QueryRow(ctx, `SELECT `+inviteColumns+` FROM pending_invites WHERE token_hash = $1`, tokenHash))
	if err != nil {
		return nil, lookupError("invite", err)
	}
	return inv, nil
}

func (r *inviteRepository) FindPendingByEmail(ctx context.Context, email string) (*domain.PendingInvite, error) {
	query := `SELECT ` + inviteColumns + ` FROM pending_invites WHERE email = $1 AND accepted_at IS NULL`
	inv, err := scanInvite(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, lookupError("invite", err)
	}
	return inv, nil
}

func (r *inviteRepository) List(ctx context.Context) ([]*domain.PendingInvite, error) {
	rows, err := r.db.Query(ctx, `SELECT `+inviteColumns+` FROM pending_invites WHERE accepted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var invites []*domain.PendingInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (r *inviteRepository) Accept(ctx context.Context, inviteID uuid.UUID, p *domain.Profile, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE pending_invites SET accepted_at = $1 WHERE id = $2 AND accepted_at IS NULL`, at, inviteID)
	if err != nil {
		return fmt.Errorf("failed to accept invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invite %s: %w", inviteID, domain.ErrInviteUsed)
	}

	if err := insertProfile(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *inviteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pending_invites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invite %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanInvite(row Row) (*domain.PendingInvite, error) {
	var inv domain.PendingInvite
	err := row.Scan(&inv.ID, &inv.Email, &inv.Role, &inv.Sede, &inv.TokenHash, &inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
