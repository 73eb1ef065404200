package redis

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

func setupRedis(t *testing.T) *printerStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := NewClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return &printerStore{rdb: client}
}

func TestPrinterStore_CRUD(t *testing.T) {
	store := setupRedis(t)
	ctx := context.Background()
	owner := uuid.New()

	thermal := domain.PrinterConfig{ID: "thermal", Name: "Térmica", ConnectionType: domain.ConnectionUSB, PaperWidthMM: 80, FontSize: 12, IsDefault: true}
	label := domain.PrinterConfig{ID: "label", Name: "Etiquetas", ConnectionType: domain.ConnectionNetwork, Address: "10.0.0.20:9100", PaperWidthMM: 58, FontSize: 10}

	require.NoError(t, store.Save(ctx, owner, thermal))
	require.NoError(t, store.Save(ctx, owner, label))

	got, err := store.Get(ctx, owner, "label")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.20:9100", got.Address)

	label.IsDefault = true
	require.NoError(t, store.Save(ctx, owner, label))

	all, err := store.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, cfg := range all {
		assert.Equal(t, cfg.ID == "label", cfg.IsDefault, cfg.ID)
	}

	require.NoError(t, store.Delete(ctx, owner, "thermal"))
	assert.ErrorIs(t, store.Delete(ctx, owner, "thermal"), domain.ErrNotFound)

	_, err = store.Get(ctx, uuid.New(), "label")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
