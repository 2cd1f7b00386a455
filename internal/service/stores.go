// Package service holds the application logic between HTTP handlers and the
// MySQL repositories: authentication, password resets, role checks, and the
// review/rating workflow.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// UserStore is the subset of repository.UserRepo the services use.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context, limit, offset int) ([]model.User, error)
	SavePassword(ctx context.Context, id uint64, hash string, changedAt *time.Time) error
	UpdateProfile(ctx context.Context, id uint64, p repository.UpdateUserParams) error
	Deactivate(ctx context.Context, id uint64) error
}

// ResetStore persists password-reset token hashes.
type ResetStore interface {
	SetResetToken(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ClearResetToken(ctx context.Context, userID uint64) error
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error)
}

// TourStore is the subset of repository.TourRepo the services use.
type TourStore interface {
	List(ctx context.Context, q repository.TourQuery) ([]model.Tour, int64, error)
	GetByID(ctx context.Context, id uint64) (model.Tour, error)
	GetBySlug(ctx context.Context, slug string) (model.Tour, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	Create(ctx context.Context, t model.Tour, guideIDs []uint64) (uint64, error)
	Update(ctx context.Context, id uint64, p repository.UpdateTourParams) error
	Delete(ctx context.Context, id uint64) error
	UpdateRatings(ctx context.Context, id uint64, ratings model.Ratings) error
	Stats(ctx context.Context) ([]model.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlan, error)
	Within(ctx context.Context, lat, lng, radius float64) ([]model.Tour, error)
	Distances(ctx context.Context, lat, lng float64) ([]model.TourDistance, error)
}

// ReviewStore is the subset of repository.ReviewRepo the services use.
type ReviewStore interface {
	Create(ctx context.Context, rv model.Review) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	List(ctx context.Context, tourID uint64) ([]model.Review, error)
	Update(ctx context.Context, id uint64, text *string, rating *int) error
	Delete(ctx context.Context, id uint64) error
	RatingStats(ctx context.Context, tourID uint64) (int, float64, error)
}

// ResetMailer delivers password-reset links.
type ResetMailer interface {
	SendPasswordReset(to, name, resetURL string, ttl time.Duration) error
}

// CachePurger drops cached responses for a group of routes.
type CachePurger interface {
	Purge(ctx context.Context, group string) error
}

// CacheGroupTours is the response-cache group covering all tour reads.
const CacheGroupTours = "tours"

// purgeTours drops the cached tour responses. Failures are logged, not
// returned.
func purgeTours(ctx context.Context, cache CachePurger, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Purge(ctx, CacheGroupTours); err != nil && logger != nil {
		logger.Warn("purge tour cache", zap.Error(err))
	}
}
