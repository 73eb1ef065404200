package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/memory"
	realtime "github.com/YelzhanWeb/repairdesk/internal/adapter/websocket"
	"github.com/YelzhanWeb/repairdesk/internal/app/admin"
	"github.com/YelzhanWeb/repairdesk/internal/app/auth"
	"github.com/YelzhanWeb/repairdesk/internal/app/customer"
	"github.com/YelzhanWeb/repairdesk/internal/app/order"
	appprinting "github.com/YelzhanWeb/repairdesk/internal/app/printing"
	"github.com/YelzhanWeb/repairdesk/internal/app/tracking"
	"github.com/YelzhanWeb/repairdesk/internal/app/workshop"
	"github.com/YelzhanWeb/repairdesk/internal/config"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
	"github.com/YelzhanWeb/repairdesk/internal/printing"
)

const testPassword = "clave-segura-123"

var testNow = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	store   *memory.Store
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             "development",
		SessionSecret:      strings.Repeat("k", 32),
		SessionMaxAge:      time.Hour,
		LoginRatePerMinute: 100,
	}
}

func newTestEnv(t *testing.T, cfg *config.Config, checks ...HealthCheck) *testEnv {
	t.Helper()

	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(testNow)
	log := logger.Nop()

	hub := realtime.NewHub(log, nil)
	t.Cleanup(hub.Stop)

	renderer, err := printing.NewRenderer(printing.Shop{Name: "TecnoFix"}, time.UTC)
	require.NoError(t, err)

	svc := Services{
		Auth:      auth.NewService(store.Profiles(), store.Invites(), clock, log).WithCost(bcrypt.MinCost),
		Admin:     admin.NewService(store.Profiles(), store.Invites(), clock, 72*time.Hour, log),
		Customers: customer.NewService(store.Customers(), clock, log),
		Orders:    order.NewService(store.Orders(), store.Customers(), store.Profiles(), hub, clock, log, nil),
		Workshop:  workshop.NewService(store.Orders(), store.Profiles(), clock, log),
		Tracking:  tracking.NewService(store.Orders(), store.Profiles(), clock, 5*time.Minute, log),
		Printing:  appprinting.NewService(store.Orders(), memory.NewPrinterStore(), renderer, clock, log),
	}

	srv := NewServer(cfg, svc, hub, prometheus.NewRegistry(), log, checks...)
	return &testEnv{handler: srv.Handler(), store: store}
}

func (e *testEnv) createUser(t *testing.T, role domain.Role, email, name string) *domain.Profile {
	t.Helper()
	p, err := domain.NewProfile(email, name, role, "Centro", testNow)
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	p.PasswordHash = string(hash)
	require.NoError(t, e.store.Profiles().Create(context.Background(), p))
	return p
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.7:52344"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuth_LoginAndMe(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.createUser(t, domain.RoleReceptionist, "recepcion@taller.ec", "Lucía Recepción")

	rec := env.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "recepcion@taller.ec", Password: "incorrecta-123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookies := env.login(t, "Recepcion@Taller.ec")
	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[profileResponse](t, rec)
	assert.Equal(t, "recepcion@taller.ec", me.Email)
	assert.Equal(t, domain.RoleReceptionist, me.Role)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil, cookies)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuth_DeactivatedProfileLosesSession(t *testing.T) {
	env := newTestEnv(t, testConfig())
	p := env.createUser(t, domain.RoleTechnician, "tecnico@taller.ec", "Pedro Técnico")
	cookies := env.login(t, p.Email)

	p.Active = false
	require.NoError(t, env.store.Profiles().Update(context.Background(), p))

	rec := env.do(t, http.MethodGet, "/api/queue", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_LoginRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRatePerMinute = 2
	env := newTestEnv(t, cfg)

	body := loginRequest{Email: "nadie@taller.ec", Password: "incorrecta-123"}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/auth/login", body, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/auth/login", body, nil).Code)

	rec := env.do(t, http.MethodPost, "/api/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode[map[string]interface{}](t, rec)["type"])
}

func TestOrders_IntakeToDelivery(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.createUser(t, domain.RoleReceptionist, "recepcion@taller.ec", "Lucía Recepción")
	env.createUser(t, domain.RoleTechnician, "tecnico@taller.ec", "Pedro Técnico")
	desk := env.login(t, "recepcion@taller.ec")
	tech := env.login(t, "tecnico@taller.ec")

	// 1. Клиент и приём двух устройств
	rec := env.do(t, http.MethodPost, "/api/customers", customerRequest{
		Cedula:   "1712345678",
		FullName: "Ana Pérez",
		Phone:    "0991234567",
	}, desk)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[customerResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/orders", createOrdersRequest{
		CustomerID: c.ID,
		Devices: []deviceRequest{
			{DeviceType: "Laptop", Brand: "Lenovo", ProblemDescription: "No enciende"},
			{DeviceType: "Celular", ProblemDescription: "Pantalla rota", Priority: domain.PriorityUrgent},
		},
	}, desk)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[[]orderResponse](t, rec)
	require.Len(t, created, 2)
	assert.NotEqual(t, created[0].OrderNumber, created[1].OrderNumber)
	assert.True(t, domain.IsOrderNumber(created[0].OrderNumber))
	assert.Equal(t, "Centro", created[0].Sede)

	// 2. Техник видит неназначенные заказы и берёт один
	rec = env.do(t, http.MethodGet, "/api/orders?view=pending", nil, tech)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderResponse](t, rec), 2)

	laptop := created[0]
	rec = env.do(t, http.MethodPost, "/api/orders/"+laptop.ID.String()+"/start", nil, tech)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StatusInProgress, decode[orderResponse](t, rec).Status)

	// 3. Выдача до завершения запрещена
	rec = env.do(t, http.MethodPost, "/api/orders/"+laptop.ID.String()+"/deliver", nil, desk)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/orders/"+laptop.ID.String()+"/complete", statusRequest{Notes: ptr("Cambio de fuente")}, tech)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/orders/"+laptop.ID.String()+"/deliver", nil, desk)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	delivered := decode[orderResponse](t, rec)
	require.NotNil(t, delivered.DeliveredAt)

	// 4. История и публичное отслеживание
	rec = env.do(t, http.MethodGet, "/api/orders/"+laptop.ID.String()+"/history", nil, desk)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]statusLogResponse](t, rec)
	require.Len(t, history, 4)
	assert.Equal(t, domain.StatusPending, history[0].Status)
	assert.Equal(t, domain.StatusDelivered, history[3].Status)

	rec = env.do(t, http.MethodGet, "/api/track/"+strings.ToLower(laptop.OrderNumber), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	track := decode[trackingResponse](t, rec)
	assert.Equal(t, domain.StatusDelivered, track.CurrentStatus)
	require.NotNil(t, track.TechnicianName)
	assert.Equal(t, "Pedro Técnico", *track.TechnicianName)
}

func TestOrders_TechnicianCannotCreate(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.createUser(t, domain.RoleTechnician, "tecnico@taller.ec", "Pedro Técnico")
	tech := env.login(t, "tecnico@taller.ec")

	rec := env.do(t, http.MethodPost, "/api/orders", createOrdersRequest{
		CustomerID: uuid.New(),
		Devices:    []deviceRequest{{DeviceType: "Laptop", ProblemDescription: "No enciende"}},
	}, tech)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/orders/not-a-uuid", nil, tech)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPrint_StickerAndZPL(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.createUser(t, domain.RoleReceptionist, "recepcion@taller.ec", "Lucía Recepción")
	desk := env.login(t, "recepcion@taller.ec")

	rec := env.do(t, http.MethodPost, "/api/customers", customerRequest{Cedula: "1712345678", FullName: "Ana Pérez", Phone: "0991234567"}, desk)
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[customerResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/orders", createOrdersRequest{
		CustomerID: c.ID,
		Devices:    []deviceRequest{{DeviceType: "Tablet", ProblemDescription: "No carga"}},
	}, desk)
	require.Equal(t, http.StatusCreated, rec.Code)
	o := decode[[]orderResponse](t, rec)[0]

	rec = env.do(t, http.MethodGet, "/api/orders/"+o.ID.String()+"/sticker", nil, desk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), o.OrderNumber)

	rec = env.do(t, http.MethodGet, "/api/orders/"+o.ID.String()+"/sticker.zpl", nil, desk)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "^XA"))

	rec = env.do(t, http.MethodGet, "/api/printers", nil, desk)
	require.Equal(t, http.StatusOK, rec.Code)
	printers := decode[[]domain.PrinterConfig](t, rec)
	require.Len(t, printers, 1)
	assert.Equal(t, "default", printers[0].ID)
}

func TestErrors_ProductionMessage(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = config.EnvProduction
	env := newTestEnv(t, cfg)

	rec := env.do(t, http.MethodGet, "/api/track/OS-20260601-000001", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "not_found", body["type"])
	assert.Equal(t, "El recurso solicitado no existe.", body["message"])

	desk := env.login(t, env.createUser(t, domain.RoleReceptionist, "desk@taller.ec", "Recepcion").Email)
	customer := customerRequest{Cedula: "1712345678", FullName: "Ana Pérez", Phone: "0991234567"}
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/customers", customer, desk).Code)

	customer.FullName = "Otra Persona"
	rec = env.do(t, http.MethodPost, "/api/customers", customer, desk)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Ana Pérez")
	assert.Contains(t, rec.Body.String(), "Ya existe un registro con estos datos.")
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, testConfig(), HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }})
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil, nil).Code)

	env = newTestEnv(t, testConfig(), HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return errors.New("dial tcp: connection refused") }})
	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestMetrics_RouteLabel(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.do(t, http.MethodGet, "/api/track/OS-20260601-000001", nil, nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="GET /api/track/{number}"`)
}

func TestIPLimiter_RefillsOverTime(t *testing.T) {
	now := testNow
	l := newIPLimiter(1, func() time.Time { return now })

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("10.0.0.1"))
}

func ptr[T any](v T) *T { return &v }
