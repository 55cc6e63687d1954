package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"FashionHub/internal/catalog"
	"FashionHub/internal/lists"
	"FashionHub/internal/session"
)

const (
	DeviceCookie  = "fh_device"
	SessionCookie = "fh_session"

	DefaultDeviceIdle = 30 * time.Minute
	sweepEvery        = time.Minute
)

// Device is one browser profile: its lists, its sign-in state and its view
// of the catalog. Requests for one device are served one at a time.
type Device struct {
	ID      string
	Lists   *lists.Store
	Session *session.Session

	mu       sync.Mutex
	engine   *catalog.Engine
	lastSeen time.Time
}

// Devices keeps live devices in memory and forgets the ones idle for longer
// than the idle timeout. Their lists remain in durable storage.
type Devices struct {
	newDevice func(ctx context.Context, id string) *Device
	idle      time.Duration
	now       func() time.Time

	mu        sync.Mutex
	m         map[string]*Device
	lastSweep time.Time
}

func NewDevices(newDevice func(ctx context.Context, id string) *Device, idle time.Duration) *Devices {
	if idle <= 0 {
		idle = DefaultDeviceIdle
	}
	return &Devices{
		newDevice: newDevice,
		idle:      idle,
		now:       time.Now,
		m:         make(map[string]*Device),
	}
}

// Get returns the live device for id, creating and loading it on first use.
func (ds *Devices) Get(ctx context.Context, id string) *Device {
	now := ds.now()

	ds.mu.Lock()
	ds.maybeSweepLocked(now)
	d, ok := ds.m[id]
	if ok {
		d.lastSeen = now
	}
	ds.mu.Unlock()
	if ok {
		return d
	}

	fresh := ds.newDevice(ctx, id)
	fresh.lastSeen = now

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if d, ok := ds.m[id]; ok {
		return d
	}
	ds.m[id] = fresh
	return fresh
}

func (ds *Devices) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.m)
}

func (ds *Devices) maybeSweepLocked(now time.Time) {
	if now.Sub(ds.lastSweep) < sweepEvery {
		return
	}
	ds.lastSweep = now
	for id, d := range ds.m {
		if now.Sub(d.lastSeen) > ds.idle {
			delete(ds.m, id)
		}
	}
}

func newDeviceID() string {
	return uuid.NewString()
}

func validDeviceID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
