// Package profilecache keeps recently read user profiles in memory for a
// short time so page views do not each hit the profile store.
package profilecache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"FashionHub/internal/auth"
)

const DefaultTTL = 5 * time.Minute

// Fetcher reads a profile from the remote store. ok=false means the
// document does not exist.
type Fetcher interface {
	GetProfile(ctx context.Context, uid string) (auth.Profile, bool, error)
}

type entry struct {
	profile auth.Profile
	at      time.Time
}

// Cache is a read-through, time-limited profile cache.
//
// The mutex only protects the map. A miss releases it before fetching, so two
// concurrent misses for one key both fetch and the later store wins.
type Cache struct {
	fetch Fetcher
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger

	lookups *prometheus.CounterVec

	mu      sync.Mutex
	entries map[string]entry
}

type Option func(*Cache)

func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics registers the lookup counter on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		c.lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_profile_cache_lookups_total",
			Help: "Profile cache lookups by result",
		}, []string{"result"})
		reg.MustRegister(c.lookups)
	}
}

func New(fetch Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetch:   fetch,
		ttl:     DefaultTTL,
		now:     time.Now,
		log:     zap.NewNop(),
		entries: make(map[string]entry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached profile while it is younger than the TTL, and
// otherwise fetches and stores a fresh copy. Fetch errors and absent
// profiles are returned without touching the cache.
func (c *Cache) Get(ctx context.Context, uid string) (auth.Profile, bool, error) {
	c.mu.Lock()
	e, ok := c.entries[uid]
	c.mu.Unlock()

	if ok {
		if c.now().Sub(e.at) < c.ttl {
			c.observe("hit")
			return e.profile, true, nil
		}
		c.observe("expired")
	} else {
		c.observe("miss")
	}

	p, found, err := c.fetch.GetProfile(ctx, uid)
	if err != nil {
		c.observe("error")
		c.log.Warn("profile fetch failed", zap.String("user_id", uid), zap.Error(err))
		return auth.Profile{}, false, err
	}
	if !found {
		return auth.Profile{}, false, nil
	}

	c.mu.Lock()
	c.entries[uid] = entry{profile: p, at: c.now()}
	c.mu.Unlock()

	return p, true, nil
}

// Invalidate drops uid's entry whether or not it is fresh.
func (c *Cache) Invalidate(uid string) {
	c.mu.Lock()
	delete(c.entries, uid)
	c.mu.Unlock()
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Len counts stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) observe(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}
