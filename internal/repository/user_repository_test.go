package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/inventory-service/internal/domain"
)

var userRowColumns = []string{
	"id", "name", "email", "password_hash", "role", "is_verified",
	"otp_hash", "otp_expires", "created_at", "updated_at",
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()
	hash := "otp-hash"
	exp := now.Add(10 * time.Minute)

	mock.ExpectQuery(`INSERT INTO users \(id, name, email, password_hash, role, is_verified, otp_hash, otp_expires\)`).
		WithArgs(pgxmock.AnyArg(), "A", "a@x.com", "pw-hash", domain.RoleUser, false, &hash, &exp).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	user := &domain.User{Name: "A", Email: "a@x.com", PasswordHash: "pw-hash", OTPHash: &hash, OTPExpires: &exp}
	require.NoError(t, repo.Create(context.Background(), user))

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, now, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "a@x.com", pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &domain.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()
	hash := "otp-hash"
	exp := now.Add(time.Minute)

	mock.ExpectQuery(`SELECT id, name, email, .* FROM users WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow("u-1", "A", "a@x.com", "pw-hash", domain.RoleUser, false, &hash, &exp, now, now))

	user, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.False(t, user.IsVerified)
	require.True(t, user.HasPendingOTP())
	assert.Equal(t, "otp-hash", *user.OTPHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`FROM users WHERE email=\$1`).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserRepository_GetAuthUser(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT id, email, name, role FROM users WHERE id=\$1`).
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "role"}).
			AddRow("u-1", "a@x.com", "A", domain.RoleAdmin))

	user, err := repo.GetAuthUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthUser{ID: "u-1", Email: "a@x.com", Name: "A", Role: domain.RoleAdmin}, *user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetOTP(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	exp := time.Now().Add(10 * time.Minute)

	mock.ExpectExec(`UPDATE users SET otp_hash=\$2, otp_expires=\$3, updated_at=NOW\(\)\s+WHERE id=\$1 AND is_verified=FALSE`).
		WithArgs("u-1", "new-hash", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.SetOTP(context.Background(), "u-1", "new-hash", exp))

	mock.ExpectExec(`UPDATE users SET otp_hash`).
		WithArgs("u-2", "new-hash", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.SetOTP(context.Background(), "u-2", "new-hash", exp), pgx.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkVerified(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`UPDATE users SET is_verified=TRUE, otp_hash=NULL, otp_expires=NULL[\s\S]*WHERE id=\$1 AND is_verified=FALSE AND otp_hash=\$2`).
		WithArgs("u-1", "hash").
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow("u-1", "A", "a@x.com", "pw-hash", domain.RoleUser, true, (*string)(nil), (*time.Time)(nil), now, now))

	user, err := repo.MarkVerified(context.Background(), "u-1", "hash")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.False(t, user.HasPendingOTP())

	mock.ExpectQuery(`UPDATE users SET is_verified=TRUE`).
		WithArgs("u-1", "hash").
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.MarkVerified(context.Background(), "u-1", "hash")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Promote(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE users SET role=\$2, is_verified=TRUE`).
		WithArgs("u-1", domain.RoleAdmin).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.Promote(context.Background(), "u-1", domain.RoleAdmin))

	mock.ExpectExec(`UPDATE users SET role=\$2`).
		WithArgs("missing", domain.RoleAdmin).
		WillReturnError(errors.New("db down"))
	assert.EqualError(t, repo.Promote(context.Background(), "missing", domain.RoleAdmin), "db down")
}
