package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"FashionHub/pkg/apperr"
	"FashionHub/pkg/kit"
	"FashionHub/pkg/validate"
)

const (
	maxBodyBytes    = 1 << 20
	DefaultTokenTTL = 24 * time.Hour
)

type Server struct {
	Log      *zap.Logger
	Accounts AccountStore
	Profiles ProfileStore
	JWT      *TokenMaker
	Revoked  *Denylist
	TokenTTL time.Duration

	// Now stamps profile writes; nil means time.Now.
	Now func() time.Time
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultTokenTTL
}

// RegisterRequest creates an account and its profile document in one call.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=50,maxbytes=72,strongpassword"`
	Name        string `json:"name" validate:"required,notblank,min=2,max=50,personname"`
	Mobile      string `json:"mobile" validate:"required,mobile"`
	DateOfBirth string `json:"date_of_birth" validate:"required,date,pastdate,minage"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityResponse is returned by register, login and whoami.
type IdentityResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		kit.WriteCodedError(w, r, http.StatusBadRequest, apperr.CodeBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if err := validate.Struct(req); err != nil {
		kit.WriteAppError(w, r, err)
		return
	}
	dob, _ := time.Parse(validate.DateLayout, req.DateOfBirth)

	acc, err := s.Accounts.Create(r.Context(), req.Email, req.Password, NewAccountID())
	if errors.Is(err, ErrEmailExists) {
		kit.WriteAppError(w, r, apperr.New(http.StatusConflict, apperr.CodeEmailInUse, "email already exists"))
		return
	}
	var ve *validate.Error
	if errors.As(err, &ve) {
		kit.WriteAppError(w, r, ve)
		return
	}
	if err != nil {
		kit.OrNop(s.Log).Error("create account failed", zap.Error(err))
		kit.WriteAppError(w, r, apperr.Internal(err))
		return
	}

	_, err = s.Profiles.Merge(r.Context(), acc.ID, ProfilePatch{
		Name:        &req.Name,
		Email:       &acc.Email,
		Mobile:      &req.Mobile,
		DateOfBirth: &dob,
	}, s.now())
	if err != nil {
		kit.OrNop(s.Log).Error("create profile failed", zap.Error(err), zap.String("user_id", acc.ID))
		kit.WriteAppError(w, r, apperr.Internal(err))
		return
	}

	s.issue(w, r, http.StatusCreated, acc)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		kit.WriteCodedError(w, r, http.StatusBadRequest, apperr.CodeInvalidCred, "email/password required", nil)
		return
	}

	acc, err := s.Accounts.Verify(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		kit.WriteAppError(w, r, apperr.New(http.StatusUnauthorized, apperr.CodeInvalidCred, "invalid credentials"))
		return
	}
	if err != nil {
		kit.OrNop(s.Log).Error("verify account failed", zap.Error(err))
		kit.WriteAppError(w, r, apperr.Internal(err))
		return
	}

	s.issue(w, r, http.StatusOK, acc)
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, acc Account) {
	tok, err := s.JWT.New(acc.ID, acc.Email, s.tokenTTL())
	if err != nil {
		kit.OrNop(s.Log).Error("token issue", zap.Error(err))
		kit.WriteAppError(w, r, apperr.Internal(err))
		return
	}
	kit.WriteJSON(w, status, IdentityResponse{UserID: acc.ID, Email: acc.Email, AccessToken: tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.bearer(w, r)
	if !ok {
		return
	}
	s.Revoked.Revoke(claims)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.bearer(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, IdentityResponse{UserID: claims.UserID, Email: claims.Email})
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	email := normalizeEmail(r.URL.Query().Get("email"))
	if email == "" {
		kit.WriteCodedError(w, r, http.StatusBadRequest, apperr.CodeInvalidEmail, "email required", nil)
		return
	}

	exists, err := s.Accounts.Exists(r.Context(), email)
	if err != nil {
		kit.OrNop(s.Log).Error("email exists check failed", zap.Error(err))
		kit.WriteAppError(w, r, apperr.Internal(err))
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// bearer authenticates the request's access token and writes the 401 itself.
func (s *Server) bearer(w http.ResponseWriter, r *http.Request) (Claims, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		kit.WriteCodedError(w, r, http.StatusUnauthorized, apperr.CodeInvalidToken, "missing token", nil)
		return Claims{}, false
	}

	claims, err := s.JWT.Parse(strings.TrimPrefix(authz, "Bearer "))
	if err == nil && s.Revoked != nil && s.Revoked.Revoked(claims) {
		err = ErrTokenRevoked
	}
	if err != nil {
		kit.WriteCodedError(w, r, http.StatusUnauthorized, apperr.CodeInvalidToken, err.Error(), nil)
		return Claims{}, false
	}
	return claims, true
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")

	p, ok, err := s.Profiles.Get(r.Context(), uid)
	if err != nil {
		kit.OrNop(s.Log).Error("get profile failed", zap.Error(err), zap.String("user_id", uid))
		kit.WriteAppError(w, r, apperr.Internal(err))
		return
	}
	if !ok {
		kit.WriteCodedError(w, r, http.StatusNotFound, apperr.CodeProfileNotFound, "profile not found", map[string]any{"uid": uid})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handlePatchProfile(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")

	var patch ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.Empty() {
		kit.WriteCodedError(w, r, http.StatusBadRequest, apperr.CodeBadRequest, "empty patch", nil)
		return
	}

	p, err := s.Profiles.Merge(r.Context(), uid, patch, s.now())
	if err != nil {
		kit.OrNop(s.Log).Error("merge profile failed", zap.Error(err), zap.String("user_id", uid))
		kit.WriteAppError(w, r, apperr.Internal(err))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for name, ping := range map[string]func() error{
		"accounts": func() error { return s.Accounts.Ping(r.Context()) },
		"profiles": func() error { return s.Profiles.Ping(r.Context()) },
	} {
		if err := ping(); err != nil {
			kit.OrNop(s.Log).Warn("readyz failed", zap.String("store", name), zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", map[string]any{"store": name})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
