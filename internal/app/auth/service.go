package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

// Compared against when the email is unknown so both paths cost one bcrypt run.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("repairdesk-dummy-password"), bcrypt.DefaultCost)

type Service struct {
	profiles interfaces.ProfileRepository
	invites  interfaces.InviteRepository
	clock    clockwork.Clock
	logger   logger.Logger
	cost     int
}

func NewService(profiles interfaces.ProfileRepository, invites interfaces.InviteRepository, clock clockwork.Clock, logger logger.Logger) *Service {
	return &Service{
		profiles: profiles,
		invites:  invites,
		clock:    clock,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// WithCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) hash(password string) (string, error) {
	if err := domain.ValidatePassword(password); err != nil {
		return "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.Profile, error) {
	reqID := logger.RequestID(ctx)

	p, err := s.profiles.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		s.logger.Info("sign_in_failed", "Unknown email", reqID, nil)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("sign_in_failed", "Wrong password", reqID, map[string]interface{}{"profile_id": p.ID.String()})
		return nil, domain.ErrInvalidCredentials
	}
	if !p.Active {
		return nil, domain.ErrProfileInactive
	}

	s.logger.Info("signed_in", "User signed in", reqID, map[string]interface{}{
		"profile_id": p.ID.String(),
		"role":       string(p.Role),
	})
	return p, nil
}

// Profile loads the session profile; inactive profiles lose their session.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, domain.ErrProfileInactive
	}
	return p, nil
}

// AcceptInvite creates the invited profile with the role and sede chosen by
// the admin and marks the invite as used.
func (s *Service) AcceptInvite(ctx context.Context, cmd interfaces.AcceptInviteCommand) (*domain.Profile, error) {
	inv, err := s.invites.FindByTokenHash(ctx, domain.HashInviteToken(cmd.Token))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := inv.CanAccept(now); err != nil {
		return nil, err
	}

	p, err := domain.NewProfile(inv.Email, cmd.FullName, inv.Role, inv.Sede, now)
	if err != nil {
		return nil, err
	}
	if p.PasswordHash, err = s.hash(cmd.Password); err != nil {
		return nil, err
	}

	if err := s.invites.Accept(ctx, inv.ID, p, now); err != nil {
		return nil, err
	}

	s.logger.Info("invite_accepted", "Invite accepted", logger.RequestID(ctx), map[string]interface{}{
		"profile_id": p.ID.String(),
		"role":       string(p.Role),
	})
	return p, nil
}

// BootstrapAdmin creates the first admin. It refuses once any admin exists.
func (s *Service) BootstrapAdmin(ctx context.Context, email, fullName, password string) (*domain.Profile, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Role == domain.RoleAdmin {
			return nil, fmt.Errorf("admin %s already exists: %w", p.Email, domain.ErrDuplicateEmail)
		}
	}

	p, err := domain.NewProfile(email, fullName, domain.RoleAdmin, "", s.clock.Now())
	if err != nil {
		return nil, err
	}
	if p.PasswordHash, err = s.hash(password); err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("admin_bootstrapped", "First admin created", "", map[string]interface{}{"email": p.Email})
	return p, nil
}
