package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/model"
)

// RatingAggregator keeps a tour's ratingsQuantity/ratingsAverage in line
// with its reviews.
//
// The read and the write are separate statements, so two review writes on
// the same tour racing each other can leave the aggregate one write behind
// until the next recompute.
type RatingAggregator struct {
	Reviews ReviewStore
	Tours   TourStore
	Cache   CachePurger
	Logger  *zap.Logger
}

// round1 rounds to one decimal place.
func round1(v float64) float64 { return math.Round(v*10) / 10 }

// Recompute recalculates the aggregate for tourID from its reviews and
// stores it. A tour without reviews returns to the default {0, 4.5}.
func (a *RatingAggregator) Recompute(ctx context.Context, tourID uint64) (model.Ratings, error) {
	n, avg, err := a.Reviews.RatingStats(ctx, tourID)
	if err != nil {
		return model.Ratings{}, err
	}
	r := model.Ratings{Quantity: 0, Average: model.DefaultRatingsAverage}
	if n > 0 {
		r = model.Ratings{Quantity: n, Average: round1(avg)}
	}
	if err := a.Tours.UpdateRatings(ctx, tourID, r); err != nil {
		return model.Ratings{}, err
	}
	purgeTours(ctx, a.Cache, a.Logger)
	return r, nil
}
