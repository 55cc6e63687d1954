package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"FashionHub/pkg/kit"
)

type PostgresProfileStore struct {
	db kit.DB
}

func NewPostgresProfileStore(db kit.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

const profileColumns = `uid, name, email, mobile, date_of_birth, created_at, updated_at`

func (s *PostgresProfileStore) Ping(ctx context.Context) error {
	return kit.WithTimeout(ctx, kit.PingTimeout, s.db.Ping)
}

func (s *PostgresProfileStore) Get(ctx context.Context, uid string) (Profile, bool, error) {
	var p Profile
	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProfile(s.db.QueryRow(ctx,
			`SELECT `+profileColumns+` FROM profiles WHERE uid = $1`, uid))
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("get profile: %w", err)
	}
	return p, true, nil
}

func (s *PostgresProfileStore) Merge(ctx context.Context, uid string, patch ProfilePatch, now time.Time) (Profile, error) {
	var p Profile
	err := kit.WithTimeout(ctx, kit.QueryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProfile(s.db.QueryRow(ctx, `
			INSERT INTO profiles (uid, name, email, mobile, date_of_birth, created_at, updated_at)
			VALUES ($1, COALESCE($2, ''), COALESCE($3, ''), COALESCE($4, ''), $5, $6, $6)
			ON CONFLICT (uid) DO UPDATE SET
				name          = COALESCE($2, profiles.name),
				email         = COALESCE($3, profiles.email),
				mobile        = COALESCE($4, profiles.mobile),
				date_of_birth = COALESCE($5, profiles.date_of_birth),
				updated_at    = $6
			RETURNING `+profileColumns,
			uid, patch.Name, patch.Email, patch.Mobile, patch.DateOfBirth, now))
		return err
	})
	if err != nil {
		return Profile{}, fmt.Errorf("merge profile: %w", err)
	}
	return p, nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UID, &p.Name, &p.Email, &p.Mobile, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
