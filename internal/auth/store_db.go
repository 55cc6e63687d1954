package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"FashionHub/pkg/kit"
)

type PostgresStore struct {
	db kit.DB
}

func NewPostgresStore(db kit.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, kit.PingTimeout, s.db.Ping)
}

func (s *PostgresStore) Create(ctx context.Context, email, password, id string) (Account, error) {
	email = normalizeEmail(email)

	hash, err := hashPassword(password)
	if err != nil {
		return Account{}, err
	}

	err = kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, `
			INSERT INTO users (id, email, pass_hash)
			VALUES ($1, $2, $3)
		`, id, email, hash)
		return err
	})
	if kit.IsUniqueViolation(err) {
		return Account{}, ErrEmailExists
	}
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	return Account{ID: id, Email: email, Hash: hash}, nil
}

func (s *PostgresStore) Verify(ctx context.Context, email, password string) (Account, error) {
	email = normalizeEmail(email)

	var a Account
	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		return s.db.QueryRow(ctx, `
			SELECT id, email, pass_hash
			FROM users
			WHERE email = $1
		`, email).Scan(&a.ID, &a.Email, &a.Hash)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, fmt.Errorf("verify account: %w", err)
	}

	if err := checkPassword(a, password); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *PostgresStore) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		return s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
			normalizeEmail(email),
		).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("account exists: %w", err)
	}
	return exists, nil
}
