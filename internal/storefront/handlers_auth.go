package storefront

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"FashionHub/internal/auth"
	"FashionHub/internal/session"
	"FashionHub/pkg/kit"
)

func requestID(r *http.Request) string {
	return chimw.GetReqID(r.Context())
}

type authPage struct {
	Form          string `json:"form"`
	From          string `json:"from,omitempty"`
	Authenticated bool   `json:"authenticated"`
	Loading       bool   `json:"loading"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

func (s *Server) authPage(w http.ResponseWriter, r *http.Request, form string) {
	d := device(r)
	_, signedIn := d.Session.Identity()
	kit.WriteJSON(w, http.StatusOK, authPage{
		Form:          form,
		From:          r.URL.Query().Get("from"),
		Authenticated: signedIn,
		Loading:       d.Session.Loading(),
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.authPage(w, r, "login")
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.authPage(w, r, "signup")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	var in session.SignInInput
	if !decodeJSON(w, r, &in) {
		return
	}

	id, err := d.Session.SignIn(r.Context(), in)
	if err != nil {
		kit.WriteAppError(w, r, err)
		return
	}
	s.signedIn(w, r, d, id)

	kit.WriteJSON(w, http.StatusOK, redirectResponse{Redirect: safeRedirect(r.URL.Query().Get("from"))})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	var in session.SignUpInput
	if !decodeJSON(w, r, &in) {
		return
	}

	id, err := d.Session.SignUp(r.Context(), in)
	if err != nil {
		kit.WriteAppError(w, r, err)
		return
	}
	s.signedIn(w, r, d, id)

	kit.WriteJSON(w, http.StatusCreated, redirectResponse{Redirect: "/"})
}

// signedIn stores the token cookie and warms the profile. A profile failure
// does not undo the sign-in.
func (s *Server) signedIn(w http.ResponseWriter, r *http.Request, d *Device, id auth.Identity) {
	http.SetCookie(w, s.cookie(SessionCookie, id.AccessToken, sessionCookieTTL))

	if _, err := d.Session.LoadProfile(r.Context()); err != nil {
		s.Log.Warn("profile load failed", zap.String("device", d.ID), zap.Error(err))
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	d := device(r)

	err := d.Session.SignOut(r.Context())

	c := s.cookie(SessionCookie, "", 0)
	c.MaxAge = -1
	http.SetCookie(w, c)

	if err != nil {
		kit.WriteAppError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, redirectResponse{Redirect: "/login"})
}
