package http

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/time/rate"

	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/apperrors"
	"github.com/YelzhanWeb/repairdesk/internal/domain"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware keeps an incoming X-Request-ID or generates one and
// stores it in the request context for the logger.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := logger.RequestID(r.Context())

			log.Debug("http_request", fmt.Sprintf("%s %s", r.Method, r.URL.Path), requestID, map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.Debug("http_response", "Request completed", requestID, map[string]interface{}{
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}

func RecoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic_recovered", "Panic recovered", logger.RequestID(r.Context()), map[string]interface{}{
						"path": r.URL.Path,
					}, fmt.Errorf("%v", rec))
					writeJSON(w, http.StatusInternalServerError, apperrors.ErrorResponse{
						Error:   "internal server error",
						Type:    apperrors.TypeInternal,
						Message: apperrors.MessageFor(apperrors.KindUnknown),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type viewerHandlerFunc func(w http.ResponseWriter, r *http.Request, viewer domain.Viewer)

// authed resolves the session viewer, records the heartbeat and calls next.
// Requests without a valid session get 401.
func (s *Server) authed(next viewerHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, err := s.currentViewer(w, r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		// Ошибка heartbeat не должна ломать запрос
		_ = s.svc.Workshop.Heartbeat(r.Context(), viewer)

		next(w, r, viewer)
	}
}

func (s *Server) currentViewer(w http.ResponseWriter, r *http.Request) (domain.Viewer, error) {
	unauthorized := apperrors.UnauthorizedError("not authenticated")

	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return domain.Viewer{}, unauthorized
	}
	raw, _ := session.Values[sessionKeyProfileID].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return domain.Viewer{}, unauthorized
	}

	p, err := s.svc.Auth.Profile(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrProfileInactive):
		s.logger.Info("session_invalidated", "Session references an unknown or inactive profile", logger.RequestID(r.Context()), map[string]interface{}{
			"profile_id": id.String(),
		})
		s.clearSession(w, r, session)
		return domain.Viewer{}, unauthorized
	case err != nil:
		return domain.Viewer{}, err
	}
	return p.Viewer(), nil
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.logger.Error("session_clear_failed", "Failed to clear session", logger.RequestID(r.Context()), nil, err)
	}
}

// limitLogin rejects clients that exceed the per-IP login rate.
func (s *Server) limitLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.loginLimiter.Allow(clientIP(r)) {
			s.writeError(w, r, apperrors.RateLimitedError("too many requests"))
			return
		}
		next(w, r)
	}
}

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter is a token bucket per client address.
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	now      func() time.Time
}

func newIPLimiter(perMinute int, now func() time.Time) *ipLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &ipLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		visitors: make(map[string]*visitor),
		now:      now,
	}
}

func (l *ipLimiter) Allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, key)
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
