package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-accommodation/internal/model"
)

// ErrUserNotFound indicates that no staff account matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides access to staff accounts.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByEmail fetches an active staff account by email.  Inactive
// accounts are treated as absent so a disabled login fails the same
// way as an unknown one.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, email, password_hash, role, is_active, created_at, updated_at
               FROM users WHERE email = ? AND is_active = TRUE`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
