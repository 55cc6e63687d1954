package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

type TokenMaker struct {
	secret []byte
	issuer string
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: "fashionhub-auth",
	}
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) New(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

// Denylist remembers signed-out token ids until the tokens would have
// expired anyway.
type Denylist struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{ids: make(map[string]time.Time), now: time.Now}
}

func (d *Denylist) Revoke(c Claims) {
	if c.ID == "" {
		return
	}
	until := d.now().Add(time.Hour)
	if c.ExpiresAt != nil {
		until = c.ExpiresAt.Time
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.sweepLocked()
	d.ids[c.ID] = until
}

func (d *Denylist) Revoked(c Claims) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	until, ok := d.ids[c.ID]
	return ok && d.now().Before(until)
}

func (d *Denylist) sweepLocked() {
	now := d.now()
	for id, until := range d.ids {
		if !now.Before(until) {
			delete(d.ids, id)
		}
	}
}
