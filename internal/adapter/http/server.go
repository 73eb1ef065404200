package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/metrics"
	realtime "github.com/YelzhanWeb/repairdesk/internal/adapter/websocket"
	"github.com/YelzhanWeb/repairdesk/internal/config"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
)

const (
	sessionName         = "repairdesk-session"
	sessionKeyProfileID = "profile_id"
	maxBodyBytes        = 1 << 20
)

// Services groups the application services the handlers call.
type Services struct {
	Auth      interfaces.AuthService
	Admin     interfaces.AdminService
	Customers interfaces.CustomerService
	Orders    interfaces.OrderService
	Workshop  interfaces.WorkshopService
	Tracking  interfaces.TrackingService
	Printing  interfaces.PrintService
}

// Realtime is the connection registry behind /ws/orders.
type Realtime interface {
	Register(profileID uuid.UUID, conn *websocket.Conn) error
	Unregister(conn *websocket.Conn)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	svc          Services
	realtime     Realtime
	sessions     *sessions.CookieStore
	upgrader     websocket.Upgrader
	loginLimiter *ipLimiter
	httpMetrics  *metrics.HTTPMetrics
	metrics      http.Handler
	healthChecks []HealthCheck
	production   bool
	logger       logger.Logger
	mux          *http.ServeMux
}

func NewServer(cfg *config.Config, svc Services, rt Realtime, reg *prometheus.Registry, logger logger.Logger, checks ...HealthCheck) *Server {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		svc:      svc,
		realtime: rt,
		sessions: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     realtime.NewCheckOrigin(!cfg.IsProduction()),
		},
		loginLimiter: newIPLimiter(cfg.LoginRatePerMinute, time.Now),
		healthChecks: checks,
		production:   cfg.IsProduction(),
		logger:       logger,
		mux:          http.NewServeMux(),
	}
	if reg != nil {
		s.httpMetrics = metrics.NewHTTPMetrics(reg)
		s.metrics = metrics.Handler(reg)
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	// Авторизация
	s.mux.HandleFunc("POST /api/auth/login", s.limitLogin(s.handleLogin))
	s.mux.HandleFunc("POST /api/auth/accept-invite", s.limitLogin(s.handleAcceptInvite))
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/auth/me", s.authed(s.handleMe))

	// Клиенты
	s.mux.HandleFunc("GET /api/customers", s.authed(s.handleSearchCustomers))
	s.mux.HandleFunc("POST /api/customers", s.authed(s.handleCreateCustomer))
	s.mux.HandleFunc("GET /api/customers/{id}", s.authed(s.handleGetCustomer))
	s.mux.HandleFunc("PUT /api/customers/{id}", s.authed(s.handleUpdateCustomer))
	s.mux.HandleFunc("DELETE /api/customers/{id}", s.authed(s.handleDeleteCustomer))

	// Заказы
	s.mux.HandleFunc("GET /api/orders", s.authed(s.handleListOrders))
	s.mux.HandleFunc("POST /api/orders", s.authed(s.handleCreateOrders))
	s.mux.HandleFunc("GET /api/orders/{id}", s.authed(s.handleGetOrder))
	s.mux.HandleFunc("PATCH /api/orders/{id}", s.authed(s.handleUpdateOrder))
	s.mux.HandleFunc("DELETE /api/orders/{id}", s.authed(s.handleDeleteOrder))
	s.mux.HandleFunc("GET /api/orders/{id}/history", s.authed(s.handleOrderHistory))
	s.mux.HandleFunc("POST /api/orders/{id}/assign", s.authed(s.handleAssign))
	for action := range statusActions {
		s.mux.HandleFunc("POST /api/orders/{id}/"+action, s.authed(s.handleStatusAction(action)))
	}

	// Печать
	s.mux.HandleFunc("GET /api/orders/{id}/comanda", s.authed(s.handlePrint(kindComanda)))
	s.mux.HandleFunc("GET /api/orders/{id}/sticker", s.authed(s.handlePrint(kindSticker)))
	s.mux.HandleFunc("GET /api/orders/{id}/sticker.zpl", s.authed(s.handlePrint(kindStickerZPL)))
	s.mux.HandleFunc("GET /api/printers", s.authed(s.handleListPrinters))
	s.mux.HandleFunc("POST /api/printers", s.authed(s.handleSavePrinter))
	s.mux.HandleFunc("DELETE /api/printers/{id}", s.authed(s.handleDeletePrinter))

	// Мастерская
	s.mux.HandleFunc("GET /api/queue", s.authed(s.handleQueue))
	s.mux.HandleFunc("GET /api/technicians", s.authed(s.handleTechniciansStatus))

	// Администрирование
	s.mux.HandleFunc("GET /api/admin/users", s.authed(s.handleListUsers))
	s.mux.HandleFunc("PATCH /api/admin/users/{id}", s.authed(s.handleUpdateUser))
	s.mux.HandleFunc("DELETE /api/admin/users/{id}", s.authed(s.handleDeleteUser))
	s.mux.HandleFunc("GET /api/admin/invites", s.authed(s.handleListInvites))
	s.mux.HandleFunc("POST /api/admin/invites", s.authed(s.handleCreateInvite))
	s.mux.HandleFunc("DELETE /api/admin/invites/{id}", s.authed(s.handleRevokeInvite))

	// Публичное отслеживание
	s.mux.HandleFunc("GET /api/track/{number}", s.handleTrackStatus)
	s.mux.HandleFunc("GET /api/track/{number}/history", s.handleTrackHistory)

	s.mux.HandleFunc("GET /ws/orders", s.authed(s.handleOrdersSocket))
}

// Handler returns the routed handler wrapped in the middleware chain. Metrics
// sit directly above the mux so the matched pattern is visible to them.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.httpMetrics != nil {
		h = s.httpMetrics.Middleware(h)
	}
	h = RecoveryMiddleware(s.logger)(h)
	h = LoggingMiddleware(s.logger)(h)
	h = RequestIDMiddleware(h)
	return h
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.healthChecks))
	for _, hc := range s.healthChecks {
		if err := hc.Check(ctx); err != nil {
			s.logger.Error("health_check_failed", "Dependency unhealthy", logger.RequestID(ctx), map[string]interface{}{
				"check": hc.Name,
			}, err)
			checks[hc.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "up"
	}

	body := map[string]interface{}{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	writeJSON(w, status, body)
}
