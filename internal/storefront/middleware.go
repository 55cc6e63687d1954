package storefront

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"FashionHub/internal/session"
	"FashionHub/pkg/apperr"
	"FashionHub/pkg/kit"
)

type ctxKey string

const deviceKey ctxKey = "device"

func DeviceFromContext(ctx context.Context) (*Device, bool) {
	d, ok := ctx.Value(deviceKey).(*Device)
	return d, ok
}

func device(r *http.Request) *Device {
	d, _ := DeviceFromContext(r.Context())
	return d
}

// WithDevice attaches the caller's device, issuing a device cookie on first
// visit, and resolves the stored session while its state is still unknown.
// It holds the device for the whole request. Calls to the account backend
// made while serving it carry the shopper's address.
func (s *Server) WithDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(kit.WithClientIP(r.Context(), kit.RemoteHost(r)))

		id := ""
		if c, err := r.Cookie(DeviceCookie); err == nil && validDeviceID(c.Value) {
			id = c.Value
		} else {
			id = newDeviceID()
			http.SetCookie(w, s.cookie(DeviceCookie, id, deviceCookieMaxAge))
		}

		d := s.Devices.Get(r.Context(), id)
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.Session.Loading() {
			s.restore(r, d)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceKey, d)))
	})
}

func (s *Server) restore(r *http.Request, d *Device) {
	token := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		token = c.Value
	}

	if err := d.Session.Restore(r.Context(), token); err != nil {
		s.Log.Warn("session restore failed", zap.String("device", d.ID), zap.Error(err))
		return
	}
	if _, ok := d.Session.Identity(); ok {
		if _, err := d.Session.LoadProfile(r.Context()); err != nil {
			s.Log.Warn("profile load failed", zap.String("device", d.ID), zap.Error(err))
		}
	}
}

// RequireSignedIn sends signed-out callers to the login page, remembering
// where they were headed. While the session is unresolved it answers 503.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := device(r)
		switch {
		case d == nil || d.Session.State() == session.StateUnknown:
			w.Header().Set("Retry-After", "1")
			kit.WriteCodedError(w, r, http.StatusServiceUnavailable, apperr.CodeSessionLoading, "session loading", nil)
			return
		case d.Session.State() == session.StateUnauthenticated:
			http.Redirect(w, r, "/login?from="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
