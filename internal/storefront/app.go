package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"FashionHub/internal/auth"
	"FashionHub/internal/catalog"
	"FashionHub/internal/lists"
	"FashionHub/internal/profilecache"
	"FashionHub/internal/session"
	"FashionHub/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

type Deps struct {
	AuthURL      string
	CatalogURL   string
	ServiceToken string

	// Lists is where device lists are persisted.
	Lists lists.Storage

	PageSize       int
	SearchDebounce time.Duration
	ProfileTTL     time.Duration
	DeviceIdle     time.Duration
	CookieSecure   bool

	// TrustProxy takes the shopper address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxy bool
	Now        func() time.Time
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if deps.AuthURL == "" || deps.CatalogURL == "" {
		return nil, errors.New("storefront: auth and catalog URLs are required")
	}
	if deps.Lists == nil {
		return nil, errors.New("storefront: list storage is required")
	}
	log := kit.OrNop(httpDeps.Log)

	authClient := auth.NewClient(deps.AuthURL, deps.ServiceToken)

	var catalogOpts []catalog.ClientOption
	cacheOpts := []profilecache.Option{profilecache.WithTTL(deps.ProfileTTL), profilecache.WithLogger(log)}
	if httpDeps.Registry != nil {
		catalogOpts = append(catalogOpts, catalog.WithRegisterer(httpDeps.Registry))
		cacheOpts = append(cacheOpts, profilecache.WithMetrics(httpDeps.Registry))
	}

	s := &Server{
		Log:            log,
		Catalog:        catalog.NewClient(deps.CatalogURL, catalogOpts...),
		PageSize:       deps.PageSize,
		SearchDebounce: deps.SearchDebounce,
		CookieSecure:   deps.CookieSecure,
		Now:            deps.Now,
	}
	profiles := profilecache.New(authClient, cacheOpts...)

	s.Devices = NewDevices(func(ctx context.Context, id string) *Device {
		dlog := log.With(zap.String("device", id))
		ls := lists.NewStore(deps.Lists, lists.WithNamespace(id), lists.WithLogger(dlog))
		ls.Load(ctx)
		return &Device{
			ID:      id,
			Lists:   ls,
			Session: session.New(authClient, profiles, ls, dlog),
		}
	}, deps.DeviceIdle)

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps, deps.TrustProxy)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", kit.Healthz)
	r.Get("/readyz", readyz(deps, log))

	s.routes(r)
	return r, nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps, trustProxy bool) {
	r.Use(chimw.RequestID)
	if trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := checkReady(ctx, deps.AuthURL+"/readyz"); err != nil {
			log.Warn("readyz failed: auth", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "auth not ready", nil)
			return
		}

		if err := checkReady(ctx, deps.CatalogURL+"/readyz"); err != nil {
			log.Warn("readyz failed: catalog", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
