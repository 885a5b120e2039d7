package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mystockfolio/backend/internal/apperror"
	"github.com/mystockfolio/backend/internal/model"
	"github.com/mystockfolio/backend/internal/repository"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, email, nickname, password_hash, wallet_address, provider, provider_id, created_at`

// Create inserts a new user and fills in ID and CreatedAt.
//
// A UNIQUE violation on email or wallet_address surfaces as
// apperror.ErrConflict so callers can distinguish "already registered" from
// a real database failure. The wallet auth flow relies on this to turn a
// lost create race into a lookup.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO users (email, nickname, password_hash, wallet_address, provider, provider_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Nickname,
		user.PasswordHash,
		user.WalletAddress,
		user.Provider,
		user.ProviderID,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

// GetByWalletAddress retrieves a user by their (normalized) wallet address.
func (r *UserRepo) GetByWalletAddress(ctx context.Context, address string) (*model.User, error) {
	return r.getUser(ctx, `WHERE wallet_address = ?`, address)
}

// GetByProvider retrieves a user by OAuth2 provider and provider-side ID.
func (r *UserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	return r.getUser(ctx, `WHERE provider = ? AND provider_id = ?`, provider, providerID)
}

func (r *UserRepo) getUser(ctx context.Context, where string, args ...any) (*model.User, error) {
	var u model.User

	err := r.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, args...,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Nickname,
		&u.PasswordHash,
		&u.WalletAddress,
		&u.Provider,
		&u.ProviderID,
		&u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return &u, nil
}

// UpdateNickname changes a user's display name.
func (r *UserRepo) UpdateNickname(ctx context.Context, id int64, nickname string) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE users SET nickname = ? WHERE id = ?`, nickname, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating nickname for user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// ExistsByEmail reports whether a user with the email is registered.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking email %s: %w", email, err)
	}
	return count > 0, nil
}

// isUniqueViolation detects a UNIQUE constraint failure. modernc.org/sqlite
// doesn't export a typed error for this, so we match the SQLite message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
