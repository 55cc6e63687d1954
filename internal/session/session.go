// Package session tracks who a device is signed in as and ties sign-in,
// sign-out and profile access to the profile cache and the device's lists.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"FashionHub/internal/auth"
	"FashionHub/pkg/apperr"
	"FashionHub/pkg/validate"
)

type State int

const (
	// StateUnknown means the stored credentials have not been resolved yet.
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
	StateAuthenticatedWithProfile
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateAuthenticatedWithProfile:
		return "authenticated_with_profile"
	default:
		return "unknown"
	}
}

// Backend is the account service as seen by a session.
type Backend interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.Identity, error)
	Login(ctx context.Context, email, password string) (auth.Identity, error)
	Logout(ctx context.Context, token string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	WhoAmI(ctx context.Context, token string) (auth.Identity, error)
	UpdateProfile(ctx context.Context, uid string, patch auth.ProfilePatch) (auth.Profile, error)
}

// ProfileCache is satisfied by *profilecache.Cache.
type ProfileCache interface {
	Get(ctx context.Context, uid string) (auth.Profile, bool, error)
	Invalidate(uid string)
}

// Lists is the part of the device's list store a session touches.
type Lists interface {
	Reset(ctx context.Context) error
}

// ErrNotSignedIn renders as 401 session/unauthenticated.
var ErrNotSignedIn error = apperr.New(http.StatusUnauthorized, apperr.CodeUnauthenticated, "not signed in")

type Session struct {
	backend Backend
	cache   ProfileCache
	lists   Lists
	log     *zap.Logger

	mu       sync.Mutex
	state    State
	identity auth.Identity
	profile  *auth.Profile
}

func New(backend Backend, cache ProfileCache, lists Lists, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{backend: backend, cache: cache, lists: lists, log: log}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading is true until Restore has reached a verdict. It says nothing about
// whether the profile has arrived.
func (s *Session) Loading() bool {
	return s.State() == StateUnknown
}

// Identity is empty unless signed in.
func (s *Session) Identity() (auth.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.signedInLocked()
}

func (s *Session) Profile() (auth.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return auth.Profile{}, false
	}
	return *s.profile, true
}

func (s *Session) signedInLocked() bool {
	return s.state == StateAuthenticated || s.state == StateAuthenticatedWithProfile
}

// Restore resolves a stored access token. An unreachable backend leaves the
// state unknown and returns the error; a rejected token signs the device out
// of the session without touching its lists.
func (s *Session) Restore(ctx context.Context, token string) error {
	if token == "" {
		s.setSignedOut()
		return nil
	}

	id, err := s.backend.WhoAmI(ctx, token)
	if err != nil {
		if transient(err) {
			return err
		}
		s.log.Info("stored token rejected", zap.Error(err))
		s.setSignedOut()
		return nil
	}

	s.setSignedIn(id)
	return nil
}

func transient(err error) bool {
	return apperr.HasCode(err, apperr.CodeNetwork) || apperr.StatusOf(err) >= http.StatusInternalServerError
}

func (s *Session) setSignedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.identity = auth.Identity{}
	s.profile = nil
}

func (s *Session) setSignedIn(id auth.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity.UserID != id.UserID {
		s.profile = nil
	}
	s.identity = id
	if s.profile != nil {
		s.state = StateAuthenticatedWithProfile
	} else {
		s.state = StateAuthenticated
	}
}

type SignUpInput struct {
	Name        string `json:"name" validate:"required,notblank,min=2,max=50,personname"`
	Email       string `json:"email" validate:"required,email,max=100"`
	Mobile      string `json:"mobile" validate:"required,mobile"`
	Password    string `json:"password" validate:"required,min=8,max=50,maxbytes=72,strongpassword"`
	DateOfBirth string `json:"date_of_birth" validate:"required,date,pastdate,minage"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUp validates locally, rejects a registered email as a field error and
// then creates the account and its profile.
func (s *Session) SignUp(ctx context.Context, in SignUpInput) (auth.Identity, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Mobile = strings.TrimSpace(in.Mobile)

	if err := validate.Struct(in); err != nil {
		return auth.Identity{}, err
	}

	exists, err := s.backend.EmailExists(ctx, in.Email)
	if err != nil {
		return auth.Identity{}, err
	}
	if exists {
		return auth.Identity{}, validate.FieldError("email", "Email already exists")
	}

	id, err := s.backend.Register(ctx, auth.RegisterRequest{
		Email:       in.Email,
		Password:    in.Password,
		Name:        in.Name,
		Mobile:      in.Mobile,
		DateOfBirth: in.DateOfBirth,
	})
	if err != nil {
		return auth.Identity{}, err
	}

	s.setSignedIn(id)
	return id, nil
}

func (s *Session) SignIn(ctx context.Context, in SignInInput) (auth.Identity, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return auth.Identity{}, err
	}

	id, err := s.backend.Login(ctx, in.Email, in.Password)
	if err != nil {
		return auth.Identity{}, err
	}

	s.setSignedIn(id)
	return id, nil
}

// SignOut revokes the token if the backend is reachable, empties both lists
// and forgets the identity. The cached profile is left to expire.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	token := s.identity.AccessToken
	s.mu.Unlock()

	if token != "" {
		if err := s.backend.Logout(ctx, token); err != nil {
			s.log.Warn("backend logout failed", zap.Error(err))
		}
	}

	s.setSignedOut()

	if err := s.lists.Reset(ctx); err != nil {
		s.log.Error("reset lists on sign-out", zap.Error(err))
		return err
	}
	return nil
}

// LoadProfile fetches the profile through the cache. On failure the session
// stays authenticated without a profile.
func (s *Session) LoadProfile(ctx context.Context) (auth.Profile, error) {
	s.mu.Lock()
	uid := s.identity.UserID
	signedIn := s.signedInLocked()
	s.mu.Unlock()

	if !signedIn {
		return auth.Profile{}, ErrNotSignedIn
	}

	p, ok, err := s.cache.Get(ctx, uid)
	if err != nil {
		return auth.Profile{}, err
	}
	if !ok {
		return auth.Profile{}, apperr.New(http.StatusNotFound, apperr.CodeProfileNotFound, "profile not found")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a sign-out or account switch may have happened during the fetch
	if !s.signedInLocked() || s.identity.UserID != uid {
		return auth.Profile{}, ErrNotSignedIn
	}
	s.profile = &p
	s.state = StateAuthenticatedWithProfile
	return p, nil
}

// RefreshProfile drops the cached copy and loads it again.
func (s *Session) RefreshProfile(ctx context.Context) (auth.Profile, error) {
	s.mu.Lock()
	uid := s.identity.UserID
	s.mu.Unlock()

	if uid != "" {
		s.cache.Invalidate(uid)
	}
	return s.LoadProfile(ctx)
}

// ProfileInput holds the editable profile fields. Empty fields are left as
// they are.
type ProfileInput struct {
	Name        string `json:"name" validate:"omitempty,notblank,min=2,max=50,personname"`
	Mobile      string `json:"mobile" validate:"omitempty,mobile"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,date,pastdate,minage"`
}

func (in ProfileInput) patch() auth.ProfilePatch {
	var p auth.ProfilePatch
	if in.Name != "" {
		p.Name = &in.Name
	}
	if in.Mobile != "" {
		p.Mobile = &in.Mobile
	}
	if in.DateOfBirth != "" {
		if d, err := time.Parse(validate.DateLayout, in.DateOfBirth); err == nil {
			p.DateOfBirth = &d
		}
	}
	return p
}

// UpdateProfile merge-writes the given fields, invalidates the cache entry
// and reloads the profile.
func (s *Session) UpdateProfile(ctx context.Context, in ProfileInput) (auth.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Mobile = strings.TrimSpace(in.Mobile)

	if err := validate.Struct(in); err != nil {
		return auth.Profile{}, err
	}
	patch := in.patch()
	if patch.Empty() {
		return auth.Profile{}, validate.FieldError("name", "Nothing to update")
	}

	s.mu.Lock()
	uid := s.identity.UserID
	signedIn := s.signedInLocked()
	s.mu.Unlock()
	if !signedIn {
		return auth.Profile{}, ErrNotSignedIn
	}

	if _, err := s.backend.UpdateProfile(ctx, uid, patch); err != nil {
		return auth.Profile{}, err
	}
	s.cache.Invalidate(uid)

	return s.LoadProfile(ctx)
}
