// Package repository implements the user directory over PostgreSQL.
package repository

import (
	"context"
	"errors"

	"contacts_backend/internal/auth/identity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no user exists for the given key.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

const uniqueViolationCode = "23505"

// User is the persisted directory record. It is the only place the hashed
// password lives; principals derived from it never carry it.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	Verified       bool
	AvatarURL      *string
	Role           string
}

// Principal strips the credential fields for sharing outside the directory.
func (u User) Principal() (identity.Principal, error) {
	role, err := identity.ParseRole(u.Role)
	if err != nil {
		return identity.Principal{}, err
	}
	return identity.Principal{
		ID:        u.ID,
		Email:     u.Email,
		Verified:  u.Verified,
		AvatarURL: u.AvatarURL,
		Role:      role,
	}, nil
}

// Repository provides user directory access backed by a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a Repository using the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, hashed_password, is_verified, avatar_url, role`

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.Verified,
		&user.AvatarURL,
		&user.Role,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

// GetByEmail finds a user by email (case-sensitive key).
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE email = $1
	`, email))
}

// Create inserts a new unverified user with the default role.
func (r *Repository) Create(ctx context.Context, email, hashedPassword string, avatarURL *string) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (email, hashed_password, is_verified, avatar_url, role)
		VALUES ($1, $2, false, $3, 'user')
		RETURNING `+userColumns+`
	`, email, hashedPassword, avatarURL))

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return User{}, ErrEmailTaken
	}
	return user, err
}

// UpdatePassword replaces the stored hash for the user with the given email.
func (r *Repository) UpdatePassword(ctx context.Context, email, hashedPassword string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET hashed_password = $2 WHERE email = $1
	`, email, hashedPassword)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified flips the verified flag. The flag is monotonic: a second
// call is a no-op, not an error.
func (r *Repository) MarkVerified(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET is_verified = true WHERE email = $1
	`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar stores the new avatar URL for the user.
func (r *Repository) UpdateAvatar(ctx context.Context, email, avatarURL string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET avatar_url = $2 WHERE email = $1
	`, email, avatarURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
