package model

import "time"

// Difficulty of a tour.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// DefaultRatingsAverage is the average a tour carries while it has no reviews.
const DefaultRatingsAverage = 4.5

// Tour represents a row in the `tours` table. Guides and StartDates are
// loaded from the tour_guides and tour_start_dates tables when requested.
type Tour struct {
	ID              uint64       `json:"id"`
	Name            string       `json:"name"`
	Slug            string       `json:"slug"`
	Duration        int          `json:"duration"`
	MaxGroupSize    int          `json:"maxGroupSize"`
	Difficulty      Difficulty   `json:"difficulty"`
	RatingsAverage  float64      `json:"ratingsAverage"`
	RatingsQuantity int          `json:"ratingsQuantity"`
	Price           float64      `json:"price"`
	PriceDiscount   *float64     `json:"priceDiscount,omitempty"`
	Summary         string       `json:"summary"`
	Description     string       `json:"description,omitempty"`
	ImageCover      string       `json:"imageCover"`
	StartLocation   *GeoPoint    `json:"startLocation,omitempty"`
	SecretTour      bool         `json:"-"`
	CreatedAt       time.Time    `json:"-"`
	StartDates      []time.Time  `json:"startDates,omitempty"`
	Guides          []PublicUser `json:"guides,omitempty"`
	Reviews         []Review     `json:"reviews,omitempty"`
}

// DurationWeeks mirrors the derived field shown on tour pages.
func (t Tour) DurationWeeks() float64 { return float64(t.Duration) / 7 }

// GeoPoint is a position on the globe with an optional label.
type GeoPoint struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Valid reports whether the coordinates lie within their ranges.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// TourDistance is how far a tour's start lies from a given point, in the
// unit that was asked for.
type TourDistance struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// TourStats is one row of the per-difficulty statistics report.
type TourStats struct {
	Difficulty Difficulty `json:"difficulty"`
	NumTours   int        `json:"numTours"`
	NumRatings int        `json:"numRatings"`
	AvgRating  float64    `json:"avgRating"`
	AvgPrice   float64    `json:"avgPrice"`
	MinPrice   float64    `json:"minPrice"`
	MaxPrice   float64    `json:"maxPrice"`
}

// MonthlyPlan is one row of the yearly start-date plan.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}
