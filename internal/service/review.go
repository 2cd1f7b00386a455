package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	q "github.com/iliyamo/tour-booking/internal/queue"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// ReviewService applies review writes and recomputes the affected tour's
// rating aggregate after each one.
type ReviewService struct {
	Reviews    ReviewStore
	Tours      TourStore
	Aggregator *RatingAggregator
	Events     EventPublisher
	Logger     *zap.Logger
}

// CreateReviewInput carries a new review. TourID comes from the nested
// route when present, UserID always from the authenticated identity.
type CreateReviewInput struct {
	Review string
	Rating int
	TourID uint64
}

// UpdateReviewInput lists the review fields that may change.
type UpdateReviewInput struct {
	Review *string
	Rating *int
}

func validRating(r int) bool { return r >= 1 && r <= 5 }

// List returns reviews of tourID, or of every tour when tourID is 0.
func (s *ReviewService) List(ctx context.Context, tourID uint64) ([]model.Review, error) {
	return s.Reviews.List(ctx, tourID)
}

// Get returns one review.
func (s *ReviewService) Get(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := s.Reviews.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Review{}, apperror.NotFound("No review found with that ID")
	}
	return rv, err
}

// Create stores a review by me and recomputes the tour's ratings.
func (s *ReviewService) Create(ctx context.Context, me model.User, in CreateReviewInput) (model.Review, error) {
	if in.TourID == 0 {
		return model.Review{}, apperror.Validation("Review must belong to a tour.")
	}
	if !validRating(in.Rating) {
		return model.Review{}, apperror.Validation("Rating must be between 1 and 5")
	}
	ok, err := s.Tours.Exists(ctx, in.TourID)
	if err != nil {
		return model.Review{}, err
	}
	if !ok {
		return model.Review{}, apperror.NotFound("No tour found with that ID")
	}

	rv := model.Review{Review: in.Review, Rating: in.Rating, TourID: in.TourID, UserID: me.ID}
	id, err := s.Reviews.Create(ctx, rv)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.Review{}, apperror.Wrap(http.StatusConflict, "You have already reviewed this tour", err)
	}
	if err != nil {
		return model.Review{}, err
	}
	rv.ID, rv.UserName, rv.CreatedAt = id, me.Name, time.Now().UTC()

	ratings, err := s.Aggregator.Recompute(ctx, rv.TourID)
	if err != nil {
		return model.Review{}, err
	}
	s.publish(ctx, q.ActionCreated, rv, ratings)
	return rv, nil
}

// Update changes a review. Users may only change their own; admins any.
func (s *ReviewService) Update(ctx context.Context, me model.User, id uint64, in UpdateReviewInput) (model.Review, error) {
	if in.Rating != nil && !validRating(*in.Rating) {
		return model.Review{}, apperror.Validation("Rating must be between 1 and 5")
	}
	before, err := s.owned(ctx, me, id)
	if err != nil {
		return model.Review{}, err
	}
	if err := s.Reviews.Update(ctx, id, in.Review, in.Rating); err != nil {
		return model.Review{}, err
	}
	ratings, err := s.Aggregator.Recompute(ctx, before.TourID)
	if err != nil {
		return model.Review{}, err
	}
	after, err := s.Reviews.GetByID(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	s.publish(ctx, q.ActionUpdated, after, ratings)
	return after, nil
}

// Delete removes a review. Users may only delete their own; admins any.
func (s *ReviewService) Delete(ctx context.Context, me model.User, id uint64) error {
	before, err := s.owned(ctx, me, id)
	if err != nil {
		return err
	}
	if err := s.Reviews.Delete(ctx, id); err != nil {
		return err
	}
	ratings, err := s.Aggregator.Recompute(ctx, before.TourID)
	if err != nil {
		return err
	}
	s.publish(ctx, q.ActionDeleted, before, ratings)
	return nil
}

// owned loads review id and checks me may modify it. The loaded row also
// pins the tour id to recompute once the review itself is gone or changed.
func (s *ReviewService) owned(ctx context.Context, me model.User, id uint64) (model.Review, error) {
	rv, err := s.Get(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	if me.Role != model.RoleAdmin && rv.UserID != me.ID {
		return model.Review{}, apperror.Forbidden("You can only modify your own reviews")
	}
	return rv, nil
}

func (s *ReviewService) publish(ctx context.Context, action string, rv model.Review, r model.Ratings) {
	if s.Events == nil {
		return
	}
	ev := q.ReviewChangedEvent{
		Action:          action,
		ReviewID:        rv.ID,
		TourID:          rv.TourID,
		UserID:          rv.UserID,
		Rating:          rv.Rating,
		RatingsQuantity: r.Quantity,
		RatingsAverage:  r.Average,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Events.PublishReviewChanged(ctx, ev); err != nil && s.Logger != nil {
		s.Logger.Warn("publish review event", zap.Uint64("review_id", rv.ID), zap.Error(err))
	}
}
