package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/utils"
)

// TourService wraps tour reads and admin writes. Every write purges the
// cached tour responses.
type TourService struct {
	Tours   TourStore
	Reviews ReviewStore
	Cache   CachePurger
	Logger  *zap.Logger
}

// TourInput carries the writable tour fields. On update nil fields are kept.
type TourInput struct {
	Name          *string
	Duration      *int
	MaxGroupSize  *int
	Difficulty    *model.Difficulty
	Price         *float64
	PriceDiscount *float64
	Summary       *string
	Description   *string
	ImageCover    *string
	SecretTour    *bool
	StartLocation *model.GeoPoint
	Guides        []uint64
	StartDates    []time.Time
}

func (s *TourService) purge(ctx context.Context) { purgeTours(ctx, s.Cache, s.Logger) }

func notFoundTour(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("No tour found with that ID")
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.Wrap(http.StatusBadRequest, "Duplicate field value: name. Please use another value!", err)
	}
	return err
}

// List returns one page of tours and the total count.
func (s *TourService) List(ctx context.Context, q repository.TourQuery) ([]model.Tour, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 100
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Difficulty != "" && !validDifficulty(model.Difficulty(q.Difficulty)) {
		return nil, 0, apperror.Validation("Difficulty is either: easy, medium, difficult")
	}
	return s.Tours.List(ctx, q)
}

// TopCheap returns the five best-rated, cheapest tours.
func (s *TourService) TopCheap(ctx context.Context) ([]model.Tour, error) {
	out, _, err := s.Tours.List(ctx, repository.TourQuery{Sort: "-ratingsAverage,price", Limit: 5, Page: 1})
	return out, err
}

// Get returns a tour with its guides and reviews.
func (s *TourService) Get(ctx context.Context, id uint64) (model.Tour, error) {
	t, err := s.Tours.GetByID(ctx, id)
	if err != nil {
		return model.Tour{}, notFoundTour(err)
	}
	return s.withReviews(ctx, t)
}

// GetBySlug returns a tour by slug with its guides and reviews.
func (s *TourService) GetBySlug(ctx context.Context, slug string) (model.Tour, error) {
	t, err := s.Tours.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Tour{}, apperror.NotFound("There is no tour with that name.")
		}
		return model.Tour{}, err
	}
	return s.withReviews(ctx, t)
}

func (s *TourService) withReviews(ctx context.Context, t model.Tour) (model.Tour, error) {
	reviews, err := s.Reviews.List(ctx, t.ID)
	if err != nil {
		return model.Tour{}, err
	}
	t.Reviews = reviews
	return t, nil
}

func validDifficulty(d model.Difficulty) bool {
	switch d {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyDifficult:
		return true
	}
	return false
}

// validate checks the fields of in that are set. price is the effective
// price the discount is compared against.
func validateTour(in TourInput, price float64) error {
	if in.Name != nil {
		n := utf8.RuneCountInString(strings.TrimSpace(*in.Name))
		if n < 10 || n > 40 {
			return apperror.Validation("A tour name must have between 10 and 40 characters")
		}
	}
	if in.Difficulty != nil && !validDifficulty(*in.Difficulty) {
		return apperror.Validation("Difficulty is either: easy, medium, difficult")
	}
	if in.Duration != nil && *in.Duration <= 0 {
		return apperror.Validation("A tour must have a duration")
	}
	if in.MaxGroupSize != nil && *in.MaxGroupSize <= 0 {
		return apperror.Validation("A tour must have a group size")
	}
	if in.Price != nil && *in.Price <= 0 {
		return apperror.Validation("A tour must have a price")
	}
	if in.PriceDiscount != nil && *in.PriceDiscount >= price {
		return apperror.Validation("Discount price should be below regular price")
	}
	if in.StartLocation != nil && !in.StartLocation.Valid() {
		return apperror.Validation("A start location needs a latitude in [-90, 90] and a longitude in [-180, 180]")
	}
	return nil
}

// Create validates and stores a new tour.
func (s *TourService) Create(ctx context.Context, in TourInput) (model.Tour, error) {
	if in.Name == nil || in.Duration == nil || in.MaxGroupSize == nil || in.Difficulty == nil ||
		in.Price == nil || in.Summary == nil || in.ImageCover == nil {
		return model.Tour{}, apperror.Validation("A tour must have a name, duration, group size, difficulty, price, summary and cover image")
	}
	if err := validateTour(in, *in.Price); err != nil {
		return model.Tour{}, err
	}
	name := strings.TrimSpace(*in.Name)
	t := model.Tour{
		Name:          name,
		Slug:          utils.Slugify(name),
		Duration:      *in.Duration,
		MaxGroupSize:  *in.MaxGroupSize,
		Difficulty:    *in.Difficulty,
		Price:         *in.Price,
		PriceDiscount: in.PriceDiscount,
		Summary:       strings.TrimSpace(*in.Summary),
		ImageCover:    *in.ImageCover,
		StartLocation: in.StartLocation,
		StartDates:    in.StartDates,
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.SecretTour != nil {
		t.SecretTour = *in.SecretTour
	}
	id, err := s.Tours.Create(ctx, t, in.Guides)
	if err != nil {
		return model.Tour{}, notFoundTour(err)
	}
	s.purge(ctx)
	t.ID = id
	t.RatingsAverage = model.DefaultRatingsAverage
	return t, nil
}

// Update validates and applies in to tour id.
func (s *TourService) Update(ctx context.Context, id uint64, in TourInput) (model.Tour, error) {
	current, err := s.Tours.GetByID(ctx, id)
	if err != nil {
		return model.Tour{}, notFoundTour(err)
	}
	price := current.Price
	if in.Price != nil {
		price = *in.Price
	}
	if err := validateTour(in, price); err != nil {
		return model.Tour{}, err
	}
	p := repository.UpdateTourParams{
		Duration:      in.Duration,
		MaxGroupSize:  in.MaxGroupSize,
		Difficulty:    in.Difficulty,
		Price:         in.Price,
		PriceDiscount: in.PriceDiscount,
		Summary:       in.Summary,
		Description:   in.Description,
		ImageCover:    in.ImageCover,
		SecretTour:    in.SecretTour,
		StartLocation: in.StartLocation,
		GuideIDs:      in.Guides,
		StartDates:    in.StartDates,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		slug := utils.Slugify(name)
		p.Name, p.Slug = &name, &slug
	}
	if err := s.Tours.Update(ctx, id, p); err != nil {
		return model.Tour{}, notFoundTour(err)
	}
	s.purge(ctx)
	t, err := s.Tours.GetByID(ctx, id)
	if err != nil {
		// a tour switched to secret is no longer readable; report what was written
		if errors.Is(err, repository.ErrNotFound) {
			return current, nil
		}
		return model.Tour{}, err
	}
	return t, nil
}

// Delete removes a tour and its reviews.
func (s *TourService) Delete(ctx context.Context, id uint64) error {
	if err := s.Tours.Delete(ctx, id); err != nil {
		return notFoundTour(err)
	}
	s.purge(ctx)
	return nil
}

// Stats returns per-difficulty statistics of well-rated tours.
func (s *TourService) Stats(ctx context.Context) ([]model.TourStats, error) {
	return s.Tours.Stats(ctx)
}

// MonthlyPlan returns the busiest months of year.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlan, error) {
	if year < 1970 || year > 9999 {
		return nil, apperror.Validation("Invalid year")
	}
	plans, err := s.Tours.MonthlyPlan(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(plans) > 12 {
		plans = plans[:12]
	}
	return plans, nil
}
