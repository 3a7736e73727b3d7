package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAuthUser(ctx context.Context, id string) (*domain.AuthUser, error)
	// SetOTP replaces the pending code of a still unverified user; pgx.ErrNoRows otherwise.
	SetOTP(ctx context.Context, id, otpHash string, expires time.Time) error
	// MarkVerified flips the user to verified only if it is unverified and otpHash is still current.
	MarkVerified(ctx context.Context, id, otpHash string) (*domain.User, error)
	// Promote grants role and marks the account verified.
	Promote(ctx context.Context, id string, role domain.Role) error
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, is_verified, otp_hash, otp_expires, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.IsVerified,
		&user.OTPHash,
		&user.OTPExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, email, password_hash, role, is_verified, otp_hash, otp_expires)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at, updated_at`

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.IsVerified,
		user.OTPHash,
		user.OTPExpires,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapWriteError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) GetAuthUser(ctx context.Context, id string) (*domain.AuthUser, error) {
	const query = `SELECT id, email, name, role FROM users WHERE id=$1`

	var user domain.AuthUser
	if err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Email, &user.Name, &user.Role); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetOTP(ctx context.Context, id, otpHash string, expires time.Time) error {
	const query = `
        UPDATE users SET otp_hash=$2, otp_expires=$3, updated_at=NOW()
        WHERE id=$1 AND is_verified=FALSE`

	return expectOne(r.db.Exec(ctx, query, id, otpHash, expires))
}

func (r *userRepository) MarkVerified(ctx context.Context, id, otpHash string) (*domain.User, error) {
	const query = `
        UPDATE users SET is_verified=TRUE, otp_hash=NULL, otp_expires=NULL, updated_at=NOW()
        WHERE id=$1 AND is_verified=FALSE AND otp_hash=$2
        RETURNING ` + userColumns

	return scanUser(r.db.QueryRow(ctx, query, id, otpHash))
}

func (r *userRepository) Promote(ctx context.Context, id string, role domain.Role) error {
	const query = `
        UPDATE users SET role=$2, is_verified=TRUE, otp_hash=NULL, otp_expires=NULL, updated_at=NOW()
        WHERE id=$1`

	return expectOne(r.db.Exec(ctx, query, id, role))
}
