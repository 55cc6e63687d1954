package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresStore_Create(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u_1", "asha@example.com", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a, err := store.Create(context.Background(), " Asha@Example.com", "Secret1!x", "u_1")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", a.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword(a.Hash, []byte("Secret1!x")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateDuplicate(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u_1", "asha@example.com", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := store.Create(context.Background(), "asha@example.com", "Secret1!x", "u_1")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Verify(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret1!x"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, email, pass_hash").
		WithArgs("asha@example.com").
		WillReturnRows(mock.NewRows([]string{"id", "email", "pass_hash"}).AddRow("u_1", "asha@example.com", hash))

	a, err := store.Verify(context.Background(), "asha@example.com", "Secret1!x")
	require.NoError(t, err)
	assert.Equal(t, "u_1", a.ID)

	mock.ExpectQuery("SELECT id, email, pass_hash").
		WithArgs("asha@example.com").
		WillReturnRows(mock.NewRows([]string{"id", "email", "pass_hash"}).AddRow("u_1", "asha@example.com", hash))

	_, err = store.Verify(context.Background(), "asha@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	mock.ExpectQuery("SELECT id, email, pass_hash").
		WithArgs("ghost@example.com").
		WillReturnRows(mock.NewRows([]string{"id", "email", "pass_hash"}))

	_, err = store.Verify(context.Background(), "ghost@example.com", "Secret1!x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Exists(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresStore(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("asha@example.com").
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.Exists(context.Background(), "ASHA@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("x@example.com").
		WillReturnError(errors.New("connection refused"))

	_, err = store.Exists(context.Background(), "x@example.com")
	assert.ErrorContains(t, err, "account exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStore_Merge(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresProfileStore(mock)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	created := now.Add(-24 * time.Hour)
	name := "Asha Rao"

	mock.ExpectQuery("INSERT INTO profiles (.+) ON CONFLICT \\(uid\\) DO UPDATE").
		WithArgs("u_1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), now).
		WillReturnRows(mock.NewRows([]string{"uid", "name", "email", "mobile", "date_of_birth", "created_at", "updated_at"}).
			AddRow("u_1", "Asha Rao", "asha@example.com", "9876543210", nil, created, now))

	p, err := store.Merge(context.Background(), "u_1", ProfilePatch{Name: &name}, now)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", p.Name)
	assert.Equal(t, "9876543210", p.Mobile)
	assert.Nil(t, p.DateOfBirth)
	assert.Equal(t, created, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProfileStore_GetMissing(t *testing.T) {
	mock := newMock(t)
	store := NewPostgresProfileStore(mock)

	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE uid =").
		WithArgs("u_404").
		WillReturnRows(mock.NewRows([]string{"uid", "name", "email", "mobile", "date_of_birth", "created_at", "updated_at"}))

	_, ok, err := store.Get(context.Background(), "u_404")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
