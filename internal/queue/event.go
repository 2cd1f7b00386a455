// Package queue defines message payloads exchanged over the message broker.
package queue

// ReviewQueueName is the durable queue review events are routed to.
const ReviewQueueName = "review.changed"

// Review event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ReviewChangedEvent is published after a review write has been applied and
// the tour's rating aggregate recomputed. It carries the resulting aggregate
// so consumers need not query the primary database.
type ReviewChangedEvent struct {
	Action          string  `json:"action"`
	ReviewID        uint64  `json:"review_id"`
	TourID          uint64  `json:"tour_id"`
	UserID          uint64  `json:"user_id"`
	Rating          int     `json:"rating,omitempty"`
	RatingsQuantity int     `json:"ratings_quantity"`
	RatingsAverage  float64 `json:"ratings_average"`
	OccurredAt      string  `json:"occurred_at"`
}
