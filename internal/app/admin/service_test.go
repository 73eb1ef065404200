package admin

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/memory"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

type fixture struct {
	svc   *Service
	store *memory.Store
	clock *clockwork.FakeClock
	admin *domain.Profile
	tech  *domain.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC))

	admin, err := domain.NewProfile("jefe@taller.ec", "Jefe", domain.RoleAdmin, "", clock.Now())
	require.NoError(t, err)
	tech, err := domain.NewProfile("pedro@taller.ec", "Pedro", domain.RoleTechnician, "Centro", clock.Now())
	require.NoError(t, err)
	require.NoError(t, store.Profiles().Create(ctx, admin))
	require.NoError(t, store.Profiles().Create(ctx, tech))

	return &fixture{
		svc:   NewService(store.Profiles(), store.Invites(), clock, 72*time.Hour, logger.Nop()),
		store: store,
		clock: clock,
		admin: admin,
		tech:  tech,
	}
}

func TestUsers_OnlyAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListUsers(ctx, f.tech.Viewer())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	users, err := f.svc.ListUsers(ctx, f.admin.Viewer())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := domain.RoleReceptionist
	sede := "Norte"
	updated, err := f.svc.UpdateUser(ctx, f.admin.Viewer(), interfaces.UpdateUserCommand{ID: f.tech.ID, Role: &role, Sede: &sede})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleReceptionist, updated.Role)
	assert.Equal(t, "Norte", updated.Sede)

	bad := domain.Role("owner")
	_, err = f.svc.UpdateUser(ctx, f.admin.Viewer(), interfaces.UpdateUserCommand{ID: f.tech.ID, Role: &bad})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	inactive := false
	_, err = f.svc.UpdateUser(ctx, f.admin.Viewer(), interfaces.UpdateUserCommand{ID: f.admin.ID, Active: &inactive})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteUser_NotSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, f.admin.Viewer(), f.admin.ID), domain.ErrForbidden)
	require.NoError(t, f.svc.DeleteUser(ctx, f.admin.Viewer(), f.tech.ID))

	_, err := f.store.Profiles().FindByID(ctx, f.tech.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateInvite_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cmd := interfaces.CreateInviteCommand{Email: "nuevo@taller.ec", Role: domain.RoleTechnician, Sede: "Sur"}

	_, _, err := f.svc.CreateInvite(ctx, f.admin.Viewer(), interfaces.CreateInviteCommand{Email: "PEDRO@taller.ec", Role: domain.RoleTechnician})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	inv, token, err := f.svc.CreateInvite(ctx, f.admin.Viewer(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.HashInviteToken(token), inv.TokenHash)
	assert.Equal(t, f.clock.Now().Add(72*time.Hour), inv.ExpiresAt)

	_, _, err = f.svc.CreateInvite(ctx, f.admin.Viewer(), cmd)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// Просроченное приглашение заменяется новым
	f.clock.Advance(73 * time.Hour)
	replacement, _, err := f.svc.CreateInvite(ctx, f.admin.Viewer(), cmd)
	require.NoError(t, err)

	invites, err := f.svc.ListInvites(ctx, f.admin.Viewer())
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, replacement.ID, invites[0].ID)

	require.NoError(t, f.svc.RevokeInvite(ctx, f.admin.Viewer(), replacement.ID))
	invites, err = f.svc.ListInvites(ctx, f.admin.Viewer())
	require.NoError(t, err)
	assert.Empty(t, invites)
}

func TestCreateInvite_Forbidden(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateInvite(context.Background(), f.tech.Viewer(), interfaces.CreateInviteCommand{Email: "x@taller.ec", Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
