package model

import "time"

// Review is one rating and comment left by a user on a tour. The pair
// (TourID, UserID) is unique. UserName is filled from the users table on
// reads.
type Review struct {
	ID        uint64    `json:"id"`
	Review    string    `json:"review"`
	Rating    int       `json:"rating"`
	TourID    uint64    `json:"tour"`
	UserID    uint64    `json:"user"`
	UserName  string    `json:"userName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ratings holds a tour's derived rating fields.
type Ratings struct {
	Quantity int     `json:"ratingsQuantity"`
	Average  float64 `json:"ratingsAverage"`
}
