package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/iliyamo/tour-booking/internal/model"
)

func intp(i int) *int           { return &i }
func floatp(f float64) *float64 { return &f }

func validTourInput() TourInput {
	d := model.DifficultyMedium
	return TourInput{
		Name:         strp("The Forest Hiker"),
		Duration:     intp(5),
		MaxGroupSize: intp(25),
		Difficulty:   &d,
		Price:        floatp(397),
		Summary:      strp("Breathtaking hike through the Canadian Banff National Park"),
		ImageCover:   strp("tour-1-cover.jpg"),
	}
}

func TestCreateTour(t *testing.T) {
	tours := newMemTours()
	purger := &countingPurger{}
	svc := &TourService{Tours: tours, Reviews: newMemReviews(), Cache: purger}

	tour, err := svc.Create(context.Background(), validTourInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tour.Slug != "the-forest-hiker" {
		t.Errorf("slug = %q", tour.Slug)
	}
	if tour.RatingsAverage != model.DefaultRatingsAverage || tour.RatingsQuantity != 0 {
		t.Errorf("ratings = %v/%d, want 4.5/0", tour.RatingsAverage, tour.RatingsQuantity)
	}
	if len(purger.groups) != 1 || purger.groups[0] != CacheGroupTours {
		t.Errorf("purged %v, want [tours]", purger.groups)
	}
}

func TestCreateTourValidation(t *testing.T) {
	svc := &TourService{Tours: newMemTours(), Reviews: newMemReviews()}
	hard := model.Difficulty("extreme")

	tests := []struct {
		name   string
		mutate func(*TourInput)
	}{
		{"short name", func(in *TourInput) { in.Name = strp("Short") }},
		{"long name", func(in *TourInput) { in.Name = strp("A tour name that is far too long to be accepted") }},
		{"bad difficulty", func(in *TourInput) { in.Difficulty = &hard }},
		{"discount above price", func(in *TourInput) { in.PriceDiscount = floatp(400) }},
		{"missing price", func(in *TourInput) { in.Price = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validTourInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			wantStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestUpdateTourDiscountUsesStoredPrice(t *testing.T) {
	tours := newMemTours()
	svc := &TourService{Tours: tours, Reviews: newMemReviews()}
	ctx := context.Background()
	tour, err := svc.Create(ctx, validTourInput())
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Update(ctx, tour.ID, TourInput{PriceDiscount: floatp(500)})
	wantStatus(t, err, http.StatusBadRequest)

	_, err = svc.Update(ctx, 404, TourInput{Price: floatp(10)})
	wantStatus(t, err, http.StatusNotFound)
}
