package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PendingInvite lets an admin pre-register a user with a role and sede.
// Only the SHA-256 hash of the token is stored.
type PendingInvite struct {
	ID         uuid.UUID
	Email      string
	Role       Role
	Sede       string
	TokenHash  string
	InvitedBy  uuid.UUID
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// NewInvite returns the invite and the plain token to hand to the invitee.
func NewInvite(email string, role Role, sede string, invitedBy uuid.UUID, ttl time.Duration, now time.Time) (*PendingInvite, string, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return nil, "", invalid("email", "email is not valid")
	}
	if !role.Valid() {
		return nil, "", invalid("role", "role must be one of: admin, receptionist, technician")
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")

	return &PendingInvite{
		ID:        uuid.New(),
		Email:     email,
		Role:      role,
		Sede:      strings.TrimSpace(sede),
		TokenHash: HashInviteToken(token),
		InvitedBy: invitedBy,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, token, nil
}

func HashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (i *PendingInvite) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// CanAccept checks the invite is neither used nor expired.
func (i *PendingInvite) CanAccept(now time.Time) error {
	if i.AcceptedAt != nil {
		return ErrInviteUsed
	}
	if i.Expired(now) {
		return ErrInviteExpired
	}
	return nil
}
