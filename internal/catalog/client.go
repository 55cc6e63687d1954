package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

var (
	ErrCatalogBadStatus   = errors.New("catalog bad status")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

const maxCatalogBody = 8 << 20

// Client fetches the full collection from the catalog source. There are no
// paging or filter parameters: all filtering happens in the Engine.
type Client struct {
	BaseURL string
	Client  *http.Client

	breaker *gobreaker.CircuitBreaker[[]Product]
}

type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	settings   gobreaker.Settings
	registerer prometheus.Registerer
}

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cfg *clientConfig) { cfg.httpClient = c }
}

// WithBreakerSettings overrides the circuit breaker tuning. Name and
// OnStateChange are managed by the client.
func WithBreakerSettings(st gobreaker.Settings) ClientOption {
	return func(cfg *clientConfig) { cfg.settings = st }
}

// WithRegisterer exports the breaker state as a gauge.
func WithRegisterer(reg prometheus.Registerer) ClientOption {
	return func(cfg *clientConfig) { cfg.registerer = reg }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}

	cfg := clientConfig{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		settings: gobreaker.Settings{
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		},
	}
	for _, o := range opts {
		o(&cfg)
	}

	var gauge prometheus.Gauge
	if cfg.registerer != nil {
		gauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storefront_catalog_breaker_state",
			Help: "Catalog fetch circuit breaker state (0=closed, 1=half-open, 2=open)",
		})
		cfg.registerer.MustRegister(gauge)
	}

	st := cfg.settings
	st.Name = "catalog"
	st.OnStateChange = func(_ string, _, to gobreaker.State) {
		if gauge != nil {
			gauge.Set(float64(to))
		}
	}

	return &Client{
		BaseURL: baseURL,
		Client:  cfg.httpClient,
		breaker: gobreaker.NewCircuitBreaker[[]Product](st),
	}
}

// FetchAll performs the single GET of the whole collection.
func (c *Client) FetchAll(ctx context.Context) ([]Product, error) {
	ps, err := c.breaker.Execute(func() ([]Product, error) {
		return c.fetchAll(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return ps, err
}

func (c *Client) fetchAll(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/products", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}

	var ps []Product
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBody)).Decode(&ps); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return ps, nil
}
