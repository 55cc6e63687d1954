package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"FashionHub/pkg/validate"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Account struct {
	ID    string
	Email string
	Hash  []byte
}

type AccountStore interface {
	Create(ctx context.Context, email, password, id string) (Account, error)
	Verify(ctx context.Context, email, password string) (Account, error)
	Exists(ctx context.Context, email string) (bool, error)
	Ping(ctx context.Context) error
}

func NewAccountID() string {
	return "u_" + uuid.NewString()
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePassword(s string) string {
	return strings.TrimSpace(s)
}

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

// hashPassword reports an over-long password as a field error on "password".
func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(normalizePassword(password)), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, validate.FieldError("password", fmt.Sprintf("Password is too long; it must be at most %d bytes", maxPasswordBytes))
	}
	return hash, err
}

func checkPassword(a Account, password string) error {
	if err := bcrypt.CompareHashAndPassword(a.Hash, []byte(normalizePassword(password))); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
