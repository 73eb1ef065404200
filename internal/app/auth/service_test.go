package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/memory"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

func newService(t *testing.T) (*Service, *memory.Store, *clockwork.FakeClock) {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC))
	svc := NewService(store.Profiles(), store.Invites(), clock, logger.Nop()).WithCost(bcrypt.MinCost)
	return svc, store, clock
}

func TestBootstrapAndSignIn(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	admin, err := svc.BootstrapAdmin(ctx, "Jefe@Taller.ec", "Jefe Taller", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	_, err = svc.BootstrapAdmin(ctx, "otro@taller.ec", "Otro", "secreto123")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	p, err := svc.SignIn(ctx, " jefe@taller.ec ", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, p.ID)

	_, err = svc.SignIn(ctx, "jefe@taller.ec", "incorrecta")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nadie@taller.ec", "secreto123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignIn_InactiveProfile(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	p, err := svc.BootstrapAdmin(ctx, "jefe@taller.ec", "Jefe Taller", "secreto123")
	require.NoError(t, err)
	p.Active = false
	require.NoError(t, store.Profiles().Update(ctx, p))

	_, err = svc.SignIn(ctx, "jefe@taller.ec", "secreto123")
	assert.ErrorIs(t, err, domain.ErrProfileInactive)

	_, err = svc.Profile(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrProfileInactive)
}

func TestAcceptInvite(t *testing.T) {
	svc, store, clock := newService(t)
	ctx := context.Background()

	inv, token, err := domain.NewInvite("pedro@taller.ec", domain.RoleTechnician, "Norte", uuid.New(), 72*time.Hour, clock.Now())
	require.NoError(t, err)
	require.NoError(t, store.Invites().Create(ctx, inv))

	_, err = svc.AcceptInvite(ctx, interfaces.AcceptInviteCommand{Token: token, FullName: "Pedro", Password: "corta"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	p, err := svc.AcceptInvite(ctx, interfaces.AcceptInviteCommand{Token: token, FullName: "Pedro Gómez", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTechnician, p.Role)
	assert.Equal(t, "Norte", p.Sede)

	_, err = svc.AcceptInvite(ctx, interfaces.AcceptInviteCommand{Token: token, FullName: "Pedro", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrInviteUsed)

	signedIn, err := svc.SignIn(ctx, "pedro@taller.ec", "secreto123")
	require.NoError(t, err)
	assert.Equal(t, p.ID, signedIn.ID)
}

func TestAcceptInvite_Expired(t *testing.T) {
	svc, store, clock := newService(t)
	ctx := context.Background()

	inv, token, err := domain.NewInvite("pedro@taller.ec", domain.RoleTechnician, "", uuid.New(), time.Hour, clock.Now())
	require.NoError(t, err)
	require.NoError(t, store.Invites().Create(ctx, inv))

	clock.Advance(2 * time.Hour)
	_, err = svc.AcceptInvite(ctx, interfaces.AcceptInviteCommand{Token: token, FullName: "Pedro", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrInviteExpired)

	_, err = svc.AcceptInvite(ctx, interfaces.AcceptInviteCommand{Token: "bogus", FullName: "Pedro", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
