package kit

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"FashionHub/pkg/apperr"
)

// idleSweepEvery bounds how often visitors with a full bucket are dropped.
const idleSweepEvery = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter gives every client IP a token bucket of limit requests that
// refills over window. Rejections carry auth/too-many-requests and a
// Retry-After for the next free token.
type IPRateLimiter struct {
	every time.Duration
	burst int
	now   func() time.Time

	// trustToken, when set, lets callers presenting it in
	// ServiceTokenHeader name the original client address.
	trustToken string

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type RateLimitOption func(*IPRateLimiter)

// TrustForwardedFrom honors X-Forwarded-For and X-Real-IP only on requests
// carrying token in ServiceTokenHeader. Without it the peer address is used.
func TrustForwardedFrom(token string) RateLimitOption {
	return func(l *IPRateLimiter) { l.trustToken = token }
}

func NewIPRateLimiter(limit int, window time.Duration, opts ...RateLimitOption) *IPRateLimiter {
	if limit < 1 {
		limit = 1
	}
	l := &IPRateLimiter{
		every:    window / time.Duration(limit),
		burst:    limit,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wait, ok := l.allow(l.clientIP(r), l.now())
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			WriteCodedError(w, r, http.StatusTooManyRequests, apperr.CodeTooManyRequests, "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow takes a token for ip at now. When the bucket is empty nothing is
// taken and the wait for the next token is returned.
func (l *IPRateLimiter) allow(ip string, now time.Time) (time.Duration, bool) {
	lim := l.limiterFor(ip, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return time.Duration(math.MaxInt64), false
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return d, false
	}
	return 0, true
}

func (l *IPRateLimiter) limiterFor(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(now)

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweepLocked forgets visitors idle long enough for their bucket to refill.
func (l *IPRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < idleSweepEvery {
		return
	}
	l.lastSweep = now

	full := l.every * time.Duration(l.burst)
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > full {
			delete(l.visitors, ip)
		}
	}
}

func (l *IPRateLimiter) clientIP(r *http.Request) string {
	if l.trustToken != "" && equalToken(r.Header.Get(ServiceTokenHeader), l.trustToken) {
		if ip := ForwardedIP(r); ip != "" {
			return ip
		}
	}
	return RemoteHost(r)
}

// ForwardedIP is the first address of X-Forwarded-For, else X-Real-IP.
func ForwardedIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return ""
}

// RemoteHost is the peer address without its port.
func RemoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

type clientIPKey struct{}

// WithClientIP records the shopper's address for calls made on their behalf.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
