package printing

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(Shop{Name: "TecnoFix", Address: "Av. Amazonas 123", Phone: "022345678"}, time.UTC)
	require.NoError(t, err)
	return r
}

func testOrder() *domain.ServiceOrder {
	cost := 45.5
	return &domain.ServiceOrder{
		ID:                 uuid.New(),
		Number:             "OS-20260314-004211",
		DeviceType:         "Laptop",
		Brand:              "HP",
		Model:              "Pavilion 15",
		ProblemDescription: strings.Repeat("La pantalla parpadea y se apaga sola. ", 6),
		Accessories:        "Cargador",
		EstimatedCost:      &cost,
		Status:             domain.StatusPending,
		Sede:               "Centro",
		CreatedAt:          time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC),
		Customer: &domain.Customer{
			Cedula:   "1712345678",
			FullName: "María Fernanda Castillo Rodríguez",
			Phone:    "0991234567",
		},
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Juan Pérez", Truncate("Juan Pérez", StickerNameLimit))
	assert.Equal(t, "exactly twenty chars", Truncate("exactly twenty chars", 20))

	got := Truncate("María Fernanda Castillo Rodríguez", StickerNameLimit)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(strings.TrimSuffix(got, "...")), StickerNameLimit)
	assert.Equal(t, "María Fernanda Casti...", got)
}

func TestStickerHTML_Truncates(t *testing.T) {
	r := newTestRenderer(t)
	o := testOrder()

	doc, err := r.StickerHTML(o, domain.DefaultPrinterConfig())
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Contains(t, body, "María Fernanda Casti...")
	assert.NotContains(t, body, "Castillo Rodríguez")
	assert.Contains(t, body, Truncate(o.ProblemDescription, StickerProblemLimit))
	assert.NotContains(t, body, strings.TrimSpace(o.ProblemDescription))
	assert.Equal(t, "sticker-OS-20260314-004211.html", doc.Filename)
}

func TestStickerData_Limits(t *testing.T) {
	r := newTestRenderer(t)
	s := r.sticker(testOrder(), domain.DefaultPrinterConfig())

	assert.LessOrEqual(t, utf8.RuneCountInString(strings.TrimSuffix(s.CustomerName, "...")), StickerNameLimit)
	assert.LessOrEqual(t, utf8.RuneCountInString(strings.TrimSuffix(s.Problem, "...")), StickerProblemLimit)
	assert.True(t, strings.HasSuffix(s.Problem, "..."))
	assert.Equal(t, 640, s.WidthDots)
}

func TestStickerZPL(t *testing.T) {
	r := newTestRenderer(t)
	o := testOrder()
	o.Customer.FullName = "Ana ^Test~"

	doc, err := r.StickerZPL(o, domain.PrinterConfig{PaperWidthMM: 58})
	require.NoError(t, err)

	body := string(doc.Body)
	assert.True(t, strings.HasPrefix(body, "^XA"))
	assert.Contains(t, body, "^PW464")
	assert.Contains(t, body, "^FDOS-20260314-004211^FS")
	assert.Contains(t, body, "^BCN,60,N,N,N^FH^FDOS-20260314-004211^FS")
	assert.Contains(t, body, "Ana _5ETest_7E")
	assert.Equal(t, "application/octet-stream", doc.ContentType)
	assert.Equal(t, "sticker-OS-20260314-004211.zpl", doc.Filename)
}

func TestComanda(t *testing.T) {
	r := newTestRenderer(t)
	o := testOrder()

	doc, err := r.Comanda(o, domain.DefaultPrinterConfig())
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Contains(t, body, "TecnoFix")
	assert.Contains(t, body, "OS-20260314-004211")
	assert.Contains(t, body, "María Fernanda Castillo Rodríguez")
	assert.Contains(t, body, "Laptop HP Pavilion 15")
	assert.Contains(t, body, "$45.50")
	assert.Contains(t, body, "14/03/2026 09:05")
	assert.Contains(t, body, "window.print()")
}

func TestHTML_MultiWordFontFamily(t *testing.T) {
	r := newTestRenderer(t)
	p := domain.DefaultPrinterConfig()
	p.FontFamily = `"Courier New", monospace`
	require.NoError(t, p.Validate())

	comanda, err := r.Comanda(testOrder(), p)
	require.NoError(t, err)
	sticker, err := r.StickerHTML(testOrder(), p)
	require.NoError(t, err)

	for _, doc := range []*Document{comanda, sticker} {
		body := string(doc.Body)
		assert.Contains(t, body, "font-family: Courier New, monospace;")
		assert.NotContains(t, body, "ZgotmplZ")
	}
}

func TestComanda_WithoutCostOrCustomer(t *testing.T) {
	r := newTestRenderer(t)
	o := testOrder()
	o.EstimatedCost = nil
	o.Customer = nil

	doc, err := r.Comanda(o, domain.DefaultPrinterConfig())
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "Por definir")
}
