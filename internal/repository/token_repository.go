package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

// TokenRepo persists password-reset tokens. Only the sha256 hex of a token
// is stored, next to its expiry, on the owning user's row.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// SetResetToken stores a token hash and its expiry. Only those two columns are written.
func (r *TokenRepo) SetResetToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_token=?, password_reset_expires=? WHERE id=? AND active=1",
		tokenHash, exp.UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ClearResetToken removes any outstanding token for the user.
func (r *TokenRepo) ClearResetToken(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_token=NULL, password_reset_expires=NULL WHERE id=?",
		userID)
	return err
}

// FindByResetToken returns the active user whose token hash matches and has
// not expired at now.
func (r *TokenRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE password_reset_token=? AND password_reset_expires > ? AND active=1 LIMIT 1",
		tokenHash, now.UTC()))
	return u, notFound(err)
}
