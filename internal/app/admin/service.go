package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

type Service struct {
	profiles  interfaces.ProfileRepository
	invites   interfaces.InviteRepository
	clock     clockwork.Clock
	inviteTTL time.Duration
	logger    logger.Logger
}

func NewService(profiles interfaces.ProfileRepository, invites interfaces.InviteRepository, clock clockwork.Clock, inviteTTL time.Duration, logger logger.Logger) *Service {
	return &Service{
		profiles:  profiles,
		invites:   invites,
		clock:     clock,
		inviteTTL: inviteTTL,
		logger:    logger,
	}
}

func (s *Service) ListUsers(ctx context.Context, viewer domain.Viewer) ([]*domain.Profile, error) {
	if !viewer.Can(domain.PermManageUsers) {
		return nil, domain.ErrForbidden
	}
	return s.profiles.List(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, viewer domain.Viewer, cmd interfaces.UpdateUserCommand) (*domain.Profile, error) {
	if !viewer.Can(domain.PermManageUsers) {
		return nil, domain.ErrForbidden
	}

	p, err := s.profiles.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	// Админ не может лишить себя доступа
	if p.ID == viewer.ProfileID {
		if (cmd.Role != nil && *cmd.Role != domain.RoleAdmin) || (cmd.Active != nil && !*cmd.Active) {
			return nil, fmt.Errorf("cannot demote or deactivate yourself: %w", domain.ErrForbidden)
		}
	}

	if cmd.FullName != nil {
		p.FullName = strings.TrimSpace(*cmd.FullName)
	}
	if cmd.Role != nil {
		p.Role = *cmd.Role
	}
	if cmd.Sede != nil {
		p.Sede = strings.TrimSpace(*cmd.Sede)
	}
	if cmd.Active != nil {
		p.Active = *cmd.Active
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.clock.Now()

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("user_updated", "User updated", logger.RequestID(ctx), map[string]interface{}{
		"profile_id": p.ID.String(),
		"role":       string(p.Role),
		"active":     p.Active,
		"updated_by": viewer.ProfileID.String(),
	})
	return p, nil
}

func (s *Service) DeleteUser(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error {
	if !viewer.Can(domain.PermManageUsers) {
		return domain.ErrForbidden
	}
	if id == viewer.ProfileID {
		return fmt.Errorf("cannot delete yourself: %w", domain.ErrForbidden)
	}

	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user_deleted", "User deleted", logger.RequestID(ctx), map[string]interface{}{
		"profile_id": id.String(),
		"deleted_by": viewer.ProfileID.String(),
	})
	return nil
}

// CreateInvite pre-registers a user. The returned token is shown once; only
// its hash is stored.
func (s *Service) CreateInvite(ctx context.Context, viewer domain.Viewer, cmd interfaces.CreateInviteCommand) (*domain.PendingInvite, string, error) {
	if !viewer.Can(domain.PermManageUsers) {
		return nil, "", domain.ErrForbidden
	}

	now := s.clock.Now()
	inv, token, err := domain.NewInvite(cmd.Email, cmd.Role, cmd.Sede, viewer.ProfileID, s.inviteTTL, now)
	if err != nil {
		return nil, "", err
	}

	// 1. Пользователь с таким email уже есть
	_, err = s.profiles.FindByEmail(ctx, inv.Email)
	switch {
	case err == nil:
		return nil, "", fmt.Errorf("profile %s: %w", inv.Email, domain.ErrDuplicateEmail)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, "", err
	}

	// 2. Открытое приглашение: действующее - конфликт, просроченное заменяется
	pending, err := s.invites.FindPendingByEmail(ctx, inv.Email)
	switch {
	case err == nil && !pending.Expired(now):
		return nil, "", fmt.Errorf("pending invite for %s: %w", inv.Email, domain.ErrDuplicateEmail)
	case err == nil:
		if err := s.invites.Delete(ctx, pending.ID); err != nil {
			return nil, "", err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, "", err
	}

	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, "", err
	}

	s.logger.Info("invite_created", "Invite created", logger.RequestID(ctx), map[string]interface{}{
		"email":      inv.Email,
		"role":       string(inv.Role),
		"expires_at": inv.ExpiresAt,
	})
	return inv, token, nil
}

func (s *Service) ListInvites(ctx context.Context, viewer domain.Viewer) ([]*domain.PendingInvite, error) {
	if !viewer.Can(domain.PermManageUsers) {
		return nil, domain.ErrForbidden
	}
	return s.invites.List(ctx)
}

func (s *Service) RevokeInvite(ctx context.Context, viewer domain.Viewer, id uuid.UUID) error {
	if !viewer.Can(domain.PermManageUsers) {
		return domain.ErrForbidden
	}
	return s.invites.Delete(ctx, id)
}
