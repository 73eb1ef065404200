package workshop

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
)

var start = time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store) (tech, other *domain.Profile, orders []*domain.ServiceOrder) {
	t.Helper()
	ctx := context.Background()

	c, err := domain.NewCustomer("1712345678", "Ana Pérez", "0991234567", "", "", start)
	require.NoError(t, err)
	require.NoError(t, store.Customers().Create(ctx, c))

	tech, err = domain.NewProfile("pedro@taller.ec", "Pedro", domain.RoleTechnician, "Centro", start)
	require.NoError(t, err)
	other, err = domain.NewProfile("maria@taller.ec", "Maria", domain.RoleTechnician, "Centro", start)
	require.NoError(t, err)
	require.NoError(t, store.Profiles().Create(ctx, tech))
	require.NoError(t, store.Profiles().Create(ctx, other))

	for i, number := range []string{"OS-20260502-000001", "OS-20260502-000002", "OS-20260502-000003", "OS-20260502-000004"} {
		o, err := domain.NewServiceOrder(c.ID, domain.Device{DeviceType: "Laptop", ProblemDescription: "No enciende"}, "Centro", nil, start.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		o.Number = number
		orders = append(orders, o)
	}

	// 0 свободный, 1 у tech в работе, 2 у tech готов, 3 у другого
	require.NoError(t, orders[1].TransitionTo(domain.StatusInProgress, tech.ID, start))
	require.NoError(t, orders[2].TransitionTo(domain.StatusInProgress, tech.ID, start))
	require.NoError(t, orders[2].TransitionTo(domain.StatusCompleted, tech.ID, start))
	require.NoError(t, orders[3].TransitionTo(domain.StatusInProgress, other.ID, start))

	require.NoError(t, store.Orders().CreateBatch(ctx, orders, "Recepcion"))
	return tech, other, orders
}

func TestQueue_TechnicianCountsOnlyVisible(t *testing.T) {
	store := memory.NewStore()
	tech, _, _ := seed(t, store)
	svc := NewService(store.Orders(), store.Profiles(), clockwork.NewFakeClockAt(start), logger.Nop())

	snap, err := svc.Queue(context.Background(), tech.Viewer(), domain.QueueInProgress)
	require.NoError(t, err)

	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "OS-20260502-000002", snap.Orders[0].Number)
	assert.Equal(t, map[domain.Status]int{
		domain.StatusPending:    1,
		domain.StatusInProgress: 1,
		domain.StatusCompleted:  1,
	}, snap.Counts)
}

func TestQueue_StaffSeesAll(t *testing.T) {
	store := memory.NewStore()
	seed(t, store)
	svc := NewService(store.Orders(), store.Profiles(), clockwork.NewFakeClockAt(start), logger.Nop())

	reception := domain.Viewer{Role: domain.RoleReceptionist}
	snap, err := svc.Queue(context.Background(), reception, domain.QueueAll)
	require.NoError(t, err)
	assert.Len(t, snap.Orders, 4)
	assert.Equal(t, 2, snap.Counts[domain.StatusInProgress])
}

func TestHeartbeat_Throttled(t *testing.T) {
	store := memory.NewStore()
	tech, _, _ := seed(t, store)
	clock := clockwork.NewFakeClockAt(start)
	svc := NewService(store.Orders(), store.Profiles(), clock, logger.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Heartbeat(ctx, tech.Viewer()))
	clock.Advance(10 * time.Second)
	require.NoError(t, svc.Heartbeat(ctx, tech.Viewer()))
	assert.Equal(t, 1, store.Calls["profiles.TouchLastSeen"])

	clock.Advance(HeartbeatInterval)
	require.NoError(t, svc.Heartbeat(ctx, tech.Viewer()))
	assert.Equal(t, 2, store.Calls["profiles.TouchLastSeen"])

	p, err := store.Profiles().FindByID(ctx, tech.ID)
	require.NoError(t, err)
	require.NotNil(t, p.LastSeenAt)
	assert.Equal(t, clock.Now(), *p.LastSeenAt)
}
