package storefront

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"FashionHub/internal/catalog"
	"FashionHub/pkg/apperr"
	"FashionHub/pkg/kit"
)

const (
	maxBodyBytes       = 1 << 20
	deviceCookieMaxAge = 365 * 24 * time.Hour
	sessionCookieTTL   = 24 * time.Hour
	reloadPath         = "/catalog/reload"
)

// Server is the shopper-facing JSON surface.
type Server struct {
	Log     *zap.Logger
	Catalog *catalog.Client
	Devices *Devices

	PageSize       int
	SearchDebounce time.Duration
	CookieSecure   bool

	// Now is the clock behind time-of-day output. Defaults to time.Now.
	Now func() time.Time
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) routes(r chi.Router) {
	r.Group(func(pr chi.Router) {
		pr.Use(s.WithDevice)

		pr.Get("/login", s.handleLoginPage)
		pr.Post("/login", s.handleLogin)
		pr.Get("/signup", s.handleSignupPage)
		pr.Post("/signup", s.handleSignup)
		pr.Post("/logout", s.handleLogout)

		pr.Group(func(ar chi.Router) {
			ar.Use(RequireSignedIn)

			ar.Get("/", s.handleCatalog)
			ar.Post("/search", s.handleSearch)
			ar.Post(reloadPath, s.handleReload)

			ar.Get("/profile", s.handleGetProfile)
			ar.Put("/profile", s.handleUpdateProfile)
			ar.Post("/profile/refresh", s.handleRefreshProfile)

			ar.Route("/my-lists", func(lr chi.Router) {
				lr.Get("/", s.handleMyLists)
				lr.Delete("/{list}", s.handleClearList)
				lr.Post("/{list}/items", s.handleBulkAdd)
				lr.Put("/{list}/items/{id}", s.handleAddItem)
				lr.Delete("/{list}/items/{id}", s.handleRemoveItem)
				lr.Post("/{list}/items/{id}/toggle", s.handleToggleItem)
			})
		})
	})
}

func (s *Server) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		kit.WriteCodedError(w, r, http.StatusBadRequest, apperr.CodeBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return false
	}
	return true
}

// CatalogErrorResponse is the error view shown when the catalog could not be
// fetched; Retry is where to POST to try again.
type CatalogErrorResponse struct {
	kit.ErrorResponse
	Retry string `json:"retry"`
}

// engine returns the device's catalog engine, fetching the collection on
// first use. Failed fetches are not remembered.
func (s *Server) engine(r *http.Request, d *Device) (*catalog.Engine, error) {
	if d.engine != nil {
		return d.engine, nil
	}
	ps, err := s.Catalog.FetchAll(r.Context())
	if err != nil {
		return nil, err
	}
	d.engine = s.newEngine(ps)
	return d.engine, nil
}

func (s *Server) newEngine(ps []catalog.Product) *catalog.Engine {
	return catalog.NewEngine(ps,
		catalog.WithPageSize(s.PageSize),
		catalog.WithSearchDebounce(s.searchDebounce(), nil),
	)
}

func (s *Server) searchDebounce() time.Duration {
	if s.SearchDebounce > 0 {
		return s.SearchDebounce
	}
	return catalog.DefaultSearchDebounce
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.Warn("catalog fetch failed", zap.Error(err))

	code := apperr.CodeCatalogUpstream
	if errors.Is(err, catalog.ErrCatalogUnavailable) {
		code = apperr.CodeCatalogDown
	}
	kit.WriteJSON(w, http.StatusBadGateway, CatalogErrorResponse{
		ErrorResponse: kit.ErrorResponse{
			Error:     apperr.UserMessage(apperr.New(http.StatusBadGateway, code, "")),
			Code:      code,
			RequestID: requestID(r),
		},
		Retry: reloadPath,
	})
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return "/"
	}
	if from == "/login" || strings.HasPrefix(from, "/login?") || from == "/signup" {
		return "/"
	}
	return from
}
