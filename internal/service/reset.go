package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/utils"
)

// DefaultResetTTL is how long a reset token stays redeemable.
const DefaultResetTTL = 10 * time.Minute

// ResetTokens issues and redeems single-use password-reset tokens.
type ResetTokens struct {
	Store ResetStore
	TTL   time.Duration
	Now   func() time.Time
}

func NewResetTokens(store ResetStore, ttl time.Duration) *ResetTokens {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetTokens{Store: store, TTL: ttl, Now: time.Now}
}

// Issue stores the hash of a new token for u and returns the plaintext.
func (r *ResetTokens) Issue(ctx context.Context, u model.User) (string, error) {
	raw, hash, err := utils.NewResetToken()
	if err != nil {
		return "", err
	}
	if err := r.Store.SetResetToken(ctx, u.ID, hash, r.Now().UTC().Add(r.TTL)); err != nil {
		return "", err
	}
	return raw, nil
}

// Redeem resolves plain to the user holding it, provided it has not
// expired. The token stays stored until the password write clears it.
func (r *ResetTokens) Redeem(ctx context.Context, plain string) (model.User, error) {
	if plain == "" {
		return model.User{}, apperror.Validation("Token is invalid or has expired")
	}
	u, err := r.Store.FindByResetToken(ctx, utils.HashToken(plain), r.Now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, apperror.Wrap(http.StatusBadRequest, "Token is invalid or has expired", err)
	}
	return u, err
}

// Clear drops any outstanding token for userID.
func (r *ResetTokens) Clear(ctx context.Context, userID uint64) error {
	return r.Store.ClearResetToken(ctx, userID)
}
