// Package httpapi is the browser-facing HTTP/JSON gateway. It calls the
// same handler methods as the gRPC server, so every rule is enforced once.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"barbershop-booking/internal/handler"
	"barbershop-booking/internal/middleware"
)

type Config struct {
	Handler *handler.Handler
	Secret  string
	// APIKey, when set, must be sent in the apikey header on public routes.
	APIKey      string
	CORSOrigins []string
	// TrustProxy rewrites RemoteAddr from X-Forwarded-For/X-Real-IP before
	// rate limiting and client keys see it.
	TrustProxy bool
	Limiter    *middleware.RateLimiter
	// Ready reports whether dependencies are reachable. Nil means always
	// ready.
	Ready  func(ctx context.Context) error
	Logger *zap.Logger
}

type server struct {
	h     *handler.Handler
	ready func(ctx context.Context) error
	ws    *wsHub
	log   *zap.Logger
}

func New(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &server{h: cfg.Handler, ready: cfg.Ready, log: log}
	s.ws = newWSHub(cfg.Handler, cfg.CORSOrigins, log)

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.Limiter != nil {
		limit = middleware.RateLimitHTTP(cfg.Limiter)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(RequestLogger(log))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.Use(APIKey(cfg.APIKey))
			pub.Use(middleware.ClientKeyHTTP)
			pub.Get("/availability", s.availability)
			pub.With(limit).Post("/bookings", s.createBooking)
			pub.With(limit).Post("/auth/register", s.register)
			pub.With(limit).Post("/auth/login", s.login)
			pub.With(limit).Post("/auth/refresh", s.refresh)
		})

		api.Group(func(priv chi.Router) {
			priv.Use(middleware.RequireAuth(cfg.Secret))
			priv.Get("/auth/session", s.session)
			priv.Post("/auth/logout", s.logout)
			priv.Get("/admin/appointments", s.listAppointments)
			priv.Post("/admin/appointments/{id}/complete", s.completeAppointment)
			priv.Delete("/admin/appointments/{id}", s.deleteAppointment)
		})

		// browsers cannot set headers on a WebSocket handshake
		api.With(tokenFromQuery, middleware.RequireAuth(cfg.Secret)).Get("/admin/ws", s.ws.serve)
	})

	return otelhttp.NewHandler(r, "http")
}

func (s *server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.log.Warn("not ready", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
