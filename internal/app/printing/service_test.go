package printing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/memory"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/printing"
)

var now = time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	logs  *observer.ObservedLogs
	order *domain.ServiceOrder
	desk  domain.Viewer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	c, err := domain.NewCustomer("1712345678", "María Fernanda Castillo Rodríguez", "0991234567", "", "", now)
	require.NoError(t, err)
	require.NoError(t, store.Customers().Create(ctx, c))

	o, err := domain.NewServiceOrder(c.ID, domain.Device{
		DeviceType:         "Laptop",
		ProblemDescription: strings.Repeat("La pantalla parpadea. ", 10),
	}, "Centro", nil, now)
	require.NoError(t, err)
	o.Number = "OS-20260502-000321"
	require.NoError(t, store.Orders().CreateBatch(ctx, []*domain.ServiceOrder{o}, "Recepcion"))

	renderer, err := printing.NewRenderer(printing.Shop{Name: "TecnoFix"}, time.UTC)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	svc := NewService(store.Orders(), memory.NewPrinterStore(), renderer, clockwork.NewFakeClockAt(now), logger.FromZap(zap.New(core)))

	return &fixture{
		svc:   svc,
		logs:  logs,
		order: o,
		desk:  domain.Viewer{ProfileID: uuid.New(), Role: domain.RoleReceptionist, FullName: "Recepcion"},
	}
}

func TestStickerHTML_DefaultPrinterTruncates(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.StickerHTML(context.Background(), f.desk, f.order.ID, "")
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Contains(t, body, "María Fernanda Casti...")
	assert.NotContains(t, body, "Castillo Rodríguez")
	assert.Equal(t, 0, f.logs.FilterMessageSnippet("Network print").Len())
}

func TestNetworkPrinter_LogsIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saved, err := f.svc.SavePrinter(ctx, f.desk, domain.PrinterConfig{
		Name:           "Taller",
		ConnectionType: domain.ConnectionNetwork,
		Address:        "192.168.1.50:9100",
		PaperWidthMM:   58,
		FontSize:       10,
	})
	require.NoError(t, err)
	assert.True(t, saved.IsDefault)
	assert.NotEmpty(t, saved.ID)

	doc, err := f.svc.StickerZPL(ctx, f.desk, f.order.ID, "")
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "^PW464")

	entries := f.logs.FilterField(zap.String("action", "print_intent_logged")).All()
	require.Len(t, entries, 1)
}

func TestPrint_VisibilityAndUnknownPrinter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Comanda(ctx, domain.Viewer{Role: domain.RoleTechnician}, f.order.ID, "")
	require.NoError(t, err, "unassigned pending orders are visible to technicians")

	_, err = f.svc.Comanda(ctx, f.desk, f.order.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPrinters_DefaultFallbackAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.svc.ListPrinters(ctx, f.desk)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.ConnectionBrowser, list[0].ConnectionType)

	_, err = f.svc.SavePrinter(ctx, f.desk, domain.PrinterConfig{Name: "Red", ConnectionType: domain.ConnectionNetwork, PaperWidthMM: 80, FontSize: 12})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address", verr.Field)

	saved, err := f.svc.SavePrinter(ctx, f.desk, domain.PrinterConfig{Name: "Caja", ConnectionType: domain.ConnectionUSB, PaperWidthMM: 80, FontSize: 12})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePrinter(ctx, f.desk, saved.ID))
	assert.ErrorIs(t, f.svc.DeletePrinter(ctx, f.desk, saved.ID), domain.ErrNotFound)
}
