package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/tour-booking/internal/model"
)

// ReviewRepo provides access to the reviews table.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewSelect = `SELECT r.id, r.review, r.rating, r.tour_id, r.user_id, COALESCE(u.name, ''), r.created_at
	FROM reviews r LEFT JOIN users u ON u.id = r.user_id`

func scanReview(s rowScanner) (model.Review, error) {
	var rv model.Review
	err := s.Scan(&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.UserName, &rv.CreatedAt)
	return rv, err
}

// Create inserts a review and returns its ID. A second review of the same
// tour by the same user yields ErrDuplicate.
func (r *ReviewRepo) Create(ctx context.Context, rv model.Review) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (review, rating, tour_id, user_id) VALUES (?,?,?,?)",
		strings.TrimSpace(rv.Review), rv.Rating, rv.TourID, rv.UserID)
	if err != nil {
		if IsDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches one review with its author's name.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE r.id = ? LIMIT 1", id))
	return rv, notFound(err)
}

// List returns reviews, newest first. tourID 0 means all tours.
func (r *ReviewRepo) List(ctx context.Context, tourID uint64) ([]model.Review, error) {
	q := reviewSelect
	args := []any{}
	if tourID != 0 {
		q += " WHERE r.tour_id = ?"
		args = append(args, tourID)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY r.created_at DESC, r.id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Update changes the text and/or rating of a review. Nil fields are kept.
func (r *ReviewRepo) Update(ctx context.Context, id uint64, text *string, rating *int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reviews SET review = COALESCE(?, review), rating = COALESCE(?, rating) WHERE id = ?",
		text, rating, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// RatingStats returns the number of reviews of a tour and their mean
// rating. The mean is 0 when there are none.
func (r *ReviewRepo) RatingStats(ctx context.Context, tourID uint64) (int, float64, error) {
	var (
		n   int
		avg sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(rating) FROM reviews WHERE tour_id = ?", tourID).Scan(&n, &avg)
	if err != nil {
		return 0, 0, err
	}
	return n, avg.Float64, nil
}
