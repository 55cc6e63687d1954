package kit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FashionHub/pkg/apperr"
	"FashionHub/pkg/validate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var er ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &er))
	return er
}

func TestIPRateLimiter(t *testing.T) {
	h := NewIPRateLimiter(2, time.Minute).Middleware(okHandler)

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)

	rec := hit("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, apperr.CodeTooManyRequests, decodeError(t, rec).Code)

	assert.Equal(t, http.StatusOK, hit("10.0.0.2").Code)
}

func TestIPRateLimiter_Refills(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	for range 2 {
		_, ok := l.allow("ip", start)
		require.True(t, ok)
	}

	wait, ok := l.allow("ip", start.Add(10*time.Second))
	assert.False(t, ok)
	assert.InDelta(t, float64(20*time.Second), float64(wait), float64(time.Millisecond))

	// the rejected call took nothing, so one token is back 30s in
	_, ok = l.allow("ip", start.Add(31*time.Second))
	assert.True(t, ok)
	_, ok = l.allow("ip", start.Add(32*time.Second))
	assert.False(t, ok)
}

func TestIPRateLimiter_DropsIdleClients(t *testing.T) {
	l := NewIPRateLimiter(5, time.Minute)
	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	l.allow("a", start)
	l.allow("b", start.Add(10*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "a")
	assert.Contains(t, l.visitors, "b")
}

func TestIPRateLimiter_ForwardedAddress(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute, TrustForwardedFrom("svc"))

	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "10.0.0.9", l.clientIP(req), "forwarded header without the service token")

	req.Header.Set(ServiceTokenHeader, "wrong")
	assert.Equal(t, "10.0.0.9", l.clientIP(req))

	req.Header.Set(ServiceTokenHeader, "svc")
	assert.Equal(t, "203.0.113.9", l.clientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", l.clientIP(req))

	untrusted := NewIPRateLimiter(1, time.Minute)
	assert.Equal(t, "10.0.0.9", untrusted.clientIP(req))
}

func TestClientIPContext(t *testing.T) {
	assert.Empty(t, ClientIPFrom(context.Background()))
	assert.Equal(t, "192.0.2.7", ClientIPFrom(WithClientIP(context.Background(), "192.0.2.7")))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", RemoteHost(req))
}

func TestServiceAuth(t *testing.T) {
	h := ServiceAuth("svc")(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/profiles/u_1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperr.CodeServiceForbidden, decodeError(t, rec).Code)

	req.Header.Set(ServiceTokenHeader, "svc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsAuth(t *testing.T) {
	cases := []struct {
		token, header string
		want          int
	}{
		{"", "Bearer ", http.StatusForbidden},
		{"m", "", http.StatusForbidden},
		{"m", "Bearer x", http.StatusForbidden},
		{"m", "Bearer m", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		MetricsAuth(tc.token)(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%q/%q", tc.token, tc.header)
	}
}

func TestWriteAppError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", validate.FieldError("email", "Email already exists"), http.StatusUnprocessableEntity, apperr.CodeValidation},
		{"coded", apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCred, "bad"), http.StatusUnauthorized, apperr.CodeInvalidCred},
		{"plain", errors.New("boom"), http.StatusInternalServerError, apperr.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			er := decodeError(t, rec)
			assert.Equal(t, tc.code, er.Code)
			assert.NotEmpty(t, er.Error)
		})
	}

	rec := httptest.NewRecorder()
	WriteAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: secret detail"))
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware("catalog", ChiRoutePatternOrPath))
	r.Get("/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		m.Requests.WithLabelValues("catalog", http.MethodGet, "/products/{id}", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight.WithLabelValues("catalog")))
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	assert.NotNil(t, NewLogger("test", "not-a-level"))
}
