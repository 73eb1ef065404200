package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterVisible_Technician(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	unassigned := &ServiceOrder{ID: uuid.New(), Status: StatusPending}
	mineInProgress := &ServiceOrder{ID: uuid.New(), Status: StatusInProgress, AssignedTo: &me}
	minePending := &ServiceOrder{ID: uuid.New(), Status: StatusPending, AssignedTo: &me}
	othersPending := &ServiceOrder{ID: uuid.New(), Status: StatusPending, AssignedTo: &other}
	othersDone := &ServiceOrder{ID: uuid.New(), Status: StatusCompleted, AssignedTo: &other}
	unassignedCancelled := &ServiceOrder{ID: uuid.New(), Status: StatusCancelled}

	all := []*ServiceOrder{unassigned, mineInProgress, minePending, othersPending, othersDone, unassignedCancelled}
	viewer := Viewer{ProfileID: me, Role: RoleTechnician}

	got := FilterVisible(viewer, all)

	require.Len(t, got, 3)
	assert.Equal(t, []*ServiceOrder{unassigned, mineInProgress, minePending}, got)
	for _, o := range got {
		assert.True(t, (o.Status == StatusPending && o.AssignedTo == nil) || o.IsAssignedTo(me))
	}
}

func TestFilterVisible_StaffSeesEverything(t *testing.T) {
	other := uuid.New()
	orders := []*ServiceOrder{
		{Status: StatusPending},
		{Status: StatusInProgress, AssignedTo: &other},
	}

	for _, role := range []Role{RoleAdmin, RoleReceptionist} {
		assert.Len(t, FilterVisible(Viewer{ProfileID: uuid.New(), Role: role}, orders), 2)
	}
}

func TestQueueView_DeliveredLeavesCompleted(t *testing.T) {
	o := &ServiceOrder{Status: StatusInProgress}
	require.NoError(t, o.TransitionTo(StatusCompleted, uuid.New(), testNow))
	assert.True(t, QueueCompleted.Matches(o))

	require.NoError(t, o.TransitionTo(StatusDelivered, uuid.New(), testNow.Add(time.Minute)))
	assert.False(t, QueueCompleted.Matches(o))
	assert.True(t, QueueDelivered.Matches(o))
	assert.NotNil(t, o.DeliveredAt)
}

func TestParseQueueView(t *testing.T) {
	v, err := ParseQueueView("")
	require.NoError(t, err)
	assert.Equal(t, QueueAll, v)
	assert.Equal(t, Status(""), v.Status())

	v, err = ParseQueueView("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, v.Status())

	_, err = ParseQueueView("archived")
	assert.Error(t, err)
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleAdmin.Can(PermManageUsers))
	assert.True(t, RoleReceptionist.Can(PermCreateOrders))
	assert.False(t, RoleReceptionist.Can(PermDeleteRecords))
	assert.True(t, RoleTechnician.Can(PermWorkOrders))
	assert.False(t, RoleTechnician.Can(PermCreateOrders))
	assert.False(t, Role("guest").Can(PermWorkOrders))
}

func TestInvite(t *testing.T) {
	admin := uuid.New()
	inv, token, err := NewInvite(" Tech@Shop.com ", RoleTechnician, "Norte", admin, 72*time.Hour, testNow)
	require.NoError(t, err)

	assert.Equal(t, "tech@shop.com", inv.Email)
	assert.Equal(t, HashInviteToken(token), inv.TokenHash)
	assert.NotEqual(t, token, inv.TokenHash)
	assert.NoError(t, inv.CanAccept(testNow.Add(time.Hour)))
	assert.ErrorIs(t, inv.CanAccept(testNow.Add(72*time.Hour)), ErrInviteExpired)

	accepted := testNow
	inv.AcceptedAt = &accepted
	assert.ErrorIs(t, inv.CanAccept(testNow), ErrInviteUsed)

	_, _, err = NewInvite("nope", RoleTechnician, "", admin, time.Hour, testNow)
	assert.Error(t, err)
}

func TestTechnicianPresence(t *testing.T) {
	seen := testNow.Add(-2 * time.Minute)
	w := TechnicianWorkload{LastSeenAt: &seen}

	assert.Equal(t, PresenceOnline, w.Presence(testNow, 5*time.Minute))
	assert.Equal(t, PresenceOffline, w.Presence(testNow, time.Minute))
	assert.Equal(t, PresenceOffline, (&TechnicianWorkload{}).Presence(testNow, time.Minute))
}
