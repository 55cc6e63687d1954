package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"FashionHub/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// ServiceToken guards the profile document routes.
	ServiceToken string
}

const (
	loginLimitPerMin    = 5
	registerLimitPerMin = 3
	existsLimitPerMin   = 20
	limitWindow         = 60 * time.Second
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	metricsOn := deps.MetricsEnabled && deps.Registry != nil
	if deps.MetricsEnabled && deps.Registry == nil {
		kit.OrNop(deps.Log).Warn("metrics enabled but Registry is nil")
	}
	if s.Revoked == nil {
		s.Revoked = NewDenylist()
	}

	setupMiddleware(r, deps)
	setupRoutes(r, s, deps, metricsOn)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.Registry != nil {
		metrics := kit.NewMetrics(deps.Registry)
		r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))
	}
}

func setupRoutes(r *chi.Mux, s *Server, deps HTTPDeps, metricsOn bool) {
	// The storefront calls in on behalf of shoppers and names them in
	// X-Forwarded-For; only its service token makes that header count.
	trust := kit.TrustForwardedFrom(deps.ServiceToken)
	loginLimiter := kit.NewIPRateLimiter(loginLimitPerMin, limitWindow, trust)
	registerLimiter := kit.NewIPRateLimiter(registerLimitPerMin, limitWindow, trust)
	existsLimiter := kit.NewIPRateLimiter(existsLimitPerMin, limitWindow, trust)

	r.Route("/auth", func(rr chi.Router) {
		rr.With(loginLimiter.Middleware).Post("/login", s.handleLogin)
		rr.With(registerLimiter.Middleware).Post("/register", s.handleRegister)
		rr.With(existsLimiter.Middleware).Get("/exists", s.handleExists)
		rr.Post("/logout", s.handleLogout)
		rr.Get("/whoami", s.handleWhoAmI)
	})

	r.Route("/profiles", func(rr chi.Router) {
		rr.Use(kit.ServiceAuth(deps.ServiceToken))
		rr.Get("/{id}", s.handleGetProfile)
		rr.Patch("/{id}", s.handlePatchProfile)
	})

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", s.handleReady)

	if metricsOn {
		r.With(kit.MetricsAuth(deps.MetricsToken)).Handle(
			"/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		)
	}
}
