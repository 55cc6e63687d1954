package catalog

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCatalogTS(t *testing.T, deps HTTPDeps) *httptest.Server {
	t.Helper()

	s := &Server{Store: NewSeededStore(), Log: zap.NewNop()}
	deps.Log = zap.NewNop()
	deps.Service = "catalog"
	ts := httptest.NewServer(NewHandler(s, deps))
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, header map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_CachesProductResponses(t *testing.T) {
	ts := newCatalogTS(t, HTTPDeps{CacheMaxAge: 90 * time.Second})

	resp := get(t, ts.URL+"/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=90", resp.Header.Get("Cache-Control"))

	resp = get(t, ts.URL+"/products/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=90", resp.Header.Get("Cache-Control"))

	resp = get(t, ts.URL+"/products/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Cache-Control"))

	resp = get(t, ts.URL+"/healthz", nil)
	assert.Empty(t, resp.Header.Get("Cache-Control"))
}

func TestHandler_NoCacheHeaderWhenDisabled(t *testing.T) {
	ts := newCatalogTS(t, HTTPDeps{})

	resp := get(t, ts.URL+"/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Cache-Control"))
}

func TestHandler_GzipsListings(t *testing.T) {
	ts := newCatalogTS(t, HTTPDeps{})

	// Setting Accept-Encoding by hand turns off transparent decompression.
	resp := get(t, ts.URL+"/products", map[string]string{"Accept-Encoding": "gzip"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
}

func TestHandler_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()

	off := newCatalogTS(t, HTTPDeps{Registry: reg})
	assert.Equal(t, http.StatusNotFound, get(t, off.URL+"/metrics", nil).StatusCode)

	on := newCatalogTS(t, HTTPDeps{Registry: prometheus.NewRegistry(), MetricsEnabled: true, MetricsToken: "m-token"})
	assert.Equal(t, http.StatusForbidden, get(t, on.URL+"/metrics", nil).StatusCode)

	resp := get(t, on.URL+"/metrics", map[string]string{"Authorization": "Bearer m-token"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
