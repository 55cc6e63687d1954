package storefront

import (
	"net/http"
	"time"

	"FashionHub/internal/auth"
	"FashionHub/internal/session"
	"FashionHub/pkg/kit"
)

type profilePage struct {
	UserID   string       `json:"user_id"`
	Email    string       `json:"email"`
	Greeting string       `json:"greeting"`
	Profile  auth.Profile `json:"profile"`
}

// Greeting is the header salutation for the local hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "Good Morning!"
	case h >= 12 && h < 17:
		return "Good Afternoon!"
	case h >= 17 && h < 22:
		return "Good Evening!"
	default:
		return "Good Night!"
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	if p, ok := d.Session.Profile(); ok {
		s.writeProfile(w, d, p)
		return
	}

	p, err := d.Session.LoadProfile(r.Context())
	if err != nil {
		kit.WriteAppError(w, r, err)
		return
	}
	s.writeProfile(w, d, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	var in session.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	p, err := d.Session.UpdateProfile(r.Context(), in)
	if err != nil {
		kit.WriteAppError(w, r, err)
		return
	}
	s.writeProfile(w, d, p)
}

func (s *Server) handleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	p, err := d.Session.RefreshProfile(r.Context())
	if err != nil {
		kit.WriteAppError(w, r, err)
		return
	}
	s.writeProfile(w, d, p)
}

func (s *Server) writeProfile(w http.ResponseWriter, d *Device, p auth.Profile) {
	id, _ := d.Session.Identity()
	kit.WriteJSON(w, http.StatusOK, profilePage{
		UserID:   id.UserID,
		Email:    id.Email,
		Greeting: Greeting(s.now()),
		Profile:  p,
	})
}
