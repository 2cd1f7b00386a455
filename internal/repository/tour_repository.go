package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

// TourRepo provides access to tours and their guide/start-date child rows.
// Secret tours are excluded from every read.
type TourRepo struct{ db *sql.DB }

func NewTourRepo(db *sql.DB) *TourRepo { return &TourRepo{db: db} }

const tourColumns = `t.id, t.name, t.slug, t.duration, t.max_group_size, t.difficulty,
	t.ratings_average, t.ratings_quantity, t.price, t.price_discount, t.summary,
	COALESCE(t.description, ''), t.image_cover, t.secret_tour, t.created_at,
	t.start_lat, t.start_lng, COALESCE(t.start_address, ''), COALESCE(t.start_description, '')`

// sphereDistance is the great-circle distance in meters from a tour's start
// to the point bound by the two placeholders (lng, lat), on a sphere of
// radius 6378.1 km.
const sphereDistance = "ST_Distance_Sphere(POINT(t.start_lng, t.start_lat), POINT(?, ?), 6378100)"

// TourQuery defines filters, sorting & pagination for listing tours.
type TourQuery struct {
	Difficulty string
	Sort       string // comma separated API field names, "-" prefix for descending
	Page       int
	Limit      int
}

// sortColumns whitelists the API field names a list may be sorted by.
var sortColumns = map[string]string{
	"price":           "t.price",
	"ratingsAverage":  "t.ratings_average",
	"ratingsQuantity": "t.ratings_quantity",
	"duration":        "t.duration",
	"maxGroupSize":    "t.max_group_size",
	"name":            "t.name",
	"createdAt":       "t.created_at",
}

// orderBy turns a sort expression into a safe ORDER BY clause. Unknown
// fields are ignored.
func orderBy(expr string) string {
	var parts []string
	for _, f := range strings.Split(expr, ",") {
		f = strings.TrimSpace(f)
		dir := "ASC"
		if strings.HasPrefix(f, "-") {
			dir, f = "DESC", f[1:]
		}
		if col, ok := sortColumns[f]; ok {
			parts = append(parts, col+" "+dir)
		}
	}
	if len(parts) == 0 {
		return "t.created_at DESC, t.id ASC"
	}
	return strings.Join(append(parts, "t.id ASC"), ", ")
}

func scanTour(s rowScanner) (model.Tour, error) {
	var (
		t          model.Tour
		difficulty string
		discount   sql.NullFloat64
		lat, lng   sql.NullFloat64
		loc        model.GeoPoint
	)
	err := s.Scan(&t.ID, &t.Name, &t.Slug, &t.Duration, &t.MaxGroupSize, &difficulty,
		&t.RatingsAverage, &t.RatingsQuantity, &t.Price, &discount, &t.Summary,
		&t.Description, &t.ImageCover, &t.SecretTour, &t.CreatedAt,
		&lat, &lng, &loc.Address, &loc.Description)
	if err != nil {
		return model.Tour{}, err
	}
	t.Difficulty = model.Difficulty(difficulty)
	if discount.Valid {
		d := discount.Float64
		t.PriceDiscount = &d
	}
	if lat.Valid && lng.Valid {
		loc.Lat, loc.Lng = lat.Float64, lng.Float64
		t.StartLocation = &loc
	}
	return t, nil
}

// startColumns splits a start location into its nullable column values.
func startColumns(p *model.GeoPoint) (lat, lng, address, description any) {
	if p == nil {
		return nil, nil, nil, nil
	}
	return p.Lat, p.Lng, p.Address, p.Description
}

// List returns one page of visible tours and the total number matching.
func (r *TourRepo) List(ctx context.Context, q TourQuery) ([]model.Tour, int64, error) {
	where := []string{"t.secret_tour = 0"}
	args := []any{}
	if q.Difficulty != "" {
		where = append(where, "t.difficulty = ?")
		args = append(args, strings.ToLower(q.Difficulty))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours t WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	dataSQL := "SELECT " + tourColumns + " FROM tours t WHERE " + cond +
		" ORDER BY " + orderBy(q.Sort) + " LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Tour, 0, q.Limit)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetByID loads a visible tour with its guides and start dates.
func (r *TourRepo) GetByID(ctx context.Context, id uint64) (model.Tour, error) {
	return r.getOne(ctx, "t.id = ?", id)
}

// GetBySlug loads a visible tour by slug with its guides and start dates.
func (r *TourRepo) GetBySlug(ctx context.Context, slug string) (model.Tour, error) {
	return r.getOne(ctx, "t.slug = ?", slug)
}

func (r *TourRepo) getOne(ctx context.Context, cond string, arg any) (model.Tour, error) {
	t, err := scanTour(r.db.QueryRowContext(ctx,
		"SELECT "+tourColumns+" FROM tours t WHERE "+cond+" AND t.secret_tour = 0 LIMIT 1", arg))
	if err != nil {
		return model.Tour{}, notFound(err)
	}
	if t.Guides, err = r.Guides(ctx, t.ID); err != nil {
		return model.Tour{}, err
	}
	if t.StartDates, err = r.StartDates(ctx, t.ID); err != nil {
		return model.Tour{}, err
	}
	return t, nil
}

// Exists reports whether a tour row exists, secret or not.
func (r *TourRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

// Guides returns the active guides assigned to a tour.
func (r *TourRepo) Guides(ctx context.Context, tourID uint64) ([]model.PublicUser, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT u.id, u.name, u.email, u.photo, u.role
		FROM tour_guides g JOIN users u ON u.id = g.user_id
		WHERE g.tour_id = ? AND u.active = 1 ORDER BY u.id`, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PublicUser
	for rows.Next() {
		var (
			u    model.PublicUser
			role string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &role); err != nil {
			return nil, err
		}
		u.Role = model.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

// StartDates returns a tour's start dates in ascending order.
func (r *TourRepo) StartDates(ctx context.Context, tourID uint64) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT starts_at FROM tour_start_dates WHERE tour_id = ? ORDER BY starts_at", tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create inserts a tour with its guides and start dates in one transaction.
func (r *TourRepo) Create(ctx context.Context, t model.Tour, guideIDs []uint64) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	lat, lng, address, description := startColumns(t.StartLocation)
	res, err := tx.ExecContext(ctx, `INSERT INTO tours
		(name, slug, duration, max_group_size, difficulty, price, price_discount,
		 summary, description, image_cover, secret_tour,
		 start_lat, start_lng, start_address, start_description)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.Name, t.Slug, t.Duration, t.MaxGroupSize, string(t.Difficulty), t.Price, t.PriceDiscount,
		t.Summary, t.Description, t.ImageCover, t.SecretTour,
		lat, lng, address, description)
	if err != nil {
		if IsDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	id := uint64(id64)
	if err := replaceChildren(ctx, tx, id, guideIDs, t.StartDates); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// UpdateTourParams lists the tour columns that may change. Nil fields are
// left untouched; non-nil GuideIDs/StartDates replace the child rows.
type UpdateTourParams struct {
	Name          *string
	Slug          *string
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
	GuideIDs      []uint64
	StartDates    []time.Time
}

// Update applies p to the tour in one transaction.
func (r *TourRepo) Update(ctx context.Context, id uint64, p UpdateTourParams) error {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) { sets, args = append(sets, col+"=?"), append(args, v) }
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Slug != nil {
		add("slug", *p.Slug)
	}
	if p.Duration != nil {
		add("duration", *p.Duration)
	}
	if p.MaxGroupSize != nil {
		add("max_group_size", *p.MaxGroupSize)
	}
	if p.Difficulty != nil {
		add("difficulty", string(*p.Difficulty))
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.PriceDiscount != nil {
		add("price_discount", *p.PriceDiscount)
	}
	if p.Summary != nil {
		add("summary", *p.Summary)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.ImageCover != nil {
		add("image_cover", *p.ImageCover)
	}
	if p.SecretTour != nil {
		add("secret_tour", *p.SecretTour)
	}
	if p.StartLocation != nil {
		lat, lng, address, description := startColumns(p.StartLocation)
		add("start_lat", lat)
		add("start_lng", lng)
		add("start_address", address)
		add("start_description", description)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours WHERE id = ? FOR UPDATE", id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE tours SET %s WHERE id = ?", strings.Join(sets, ", ")), args...); err != nil {
			if IsDuplicate(err) {
				return ErrDuplicate
			}
			return err
		}
	}
	if p.GuideIDs != nil || p.StartDates != nil {
		if err := replaceChildren(ctx, tx, id, p.GuideIDs, p.StartDates); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// replaceChildren rewrites guides and start dates; a nil slice leaves that table alone.
func replaceChildren(ctx context.Context, tx *sql.Tx, tourID uint64, guideIDs []uint64, dates []time.Time) error {
	if guideIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tour_guides WHERE tour_id = ?", tourID); err != nil {
			return err
		}
		for _, g := range guideIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT IGNORE INTO tour_guides (tour_id, user_id) VALUES (?, ?)", tourID, g); err != nil {
				return err
			}
		}
	}
	if dates != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tour_start_dates WHERE tour_id = ?", tourID); err != nil {
			return err
		}
		for _, d := range dates {
			if _, err := tx.ExecContext(ctx,
				"INSERT IGNORE INTO tour_start_dates (tour_id, starts_at) VALUES (?, ?)", tourID, d.UTC()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes a tour; guides, start dates and reviews cascade.
func (r *TourRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tours WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Within returns the visible tours starting no further than radius meters
// from (lat, lng). Tours without a start location never match.
func (r *TourRepo) Within(ctx context.Context, lat, lng, radius float64) ([]model.Tour, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+tourColumns+` FROM tours t
		WHERE t.secret_tour = 0 AND t.start_lat IS NOT NULL AND t.start_lng IS NOT NULL
		AND `+sphereDistance+` <= ?
		ORDER BY t.id`, lng, lat, radius)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Distances returns every located, visible tour with its distance in meters
// from (lat, lng), nearest first.
func (r *TourRepo) Distances(ctx context.Context, lat, lng float64) ([]model.TourDistance, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT t.id, t.name, `+sphereDistance+` AS distance
		FROM tours t
		WHERE t.secret_tour = 0 AND t.start_lat IS NOT NULL AND t.start_lng IS NOT NULL
		ORDER BY distance ASC, t.id ASC`, lng, lat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TourDistance
	for rows.Next() {
		var d model.TourDistance
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateRatings writes the derived rating fields of a tour.
func (r *TourRepo) UpdateRatings(ctx context.Context, id uint64, ratings model.Ratings) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE tours SET ratings_quantity = ?, ratings_average = ? WHERE id = ?",
		ratings.Quantity, ratings.Average, id)
	return err
}

// Stats aggregates well-rated tours (average >= 4.5) per difficulty,
// cheapest average price first.
func (r *TourRepo) Stats(ctx context.Context) ([]model.TourStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT difficulty, COUNT(*), COALESCE(SUM(ratings_quantity), 0),
			AVG(ratings_average), AVG(price), MIN(price), MAX(price)
		FROM tours
		WHERE ratings_average >= 4.5 AND secret_tour = 0
		GROUP BY difficulty
		ORDER BY AVG(price) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TourStats
	for rows.Next() {
		var (
			s          model.TourStats
			difficulty string
		)
		if err := rows.Scan(&difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, err
		}
		s.Difficulty = model.Difficulty(difficulty)
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (r *TourRepo) MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	rows, err := r.db.QueryContext(ctx, `SELECT MONTH(d.starts_at), t.name
		FROM tour_start_dates d JOIN tours t ON t.id = d.tour_id
		WHERE d.starts_at >= ? AND d.starts_at < ? AND t.secret_tour = 0
		ORDER BY d.starts_at, t.name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMonth := map[int]*model.MonthlyPlan{}
	for rows.Next() {
		var (
			month int
			name  string
		)
		if err := rows.Scan(&month, &name); err != nil {
			return nil, err
		}
		p, ok := byMonth[month]
		if !ok {
			p = &model.MonthlyPlan{Month: month}
			byMonth[month] = p
		}
		p.NumTourStarts++
		p.Tours = append(p.Tours, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortPlans(byMonth), nil
}

func sortPlans(byMonth map[int]*model.MonthlyPlan) []model.MonthlyPlan {
	out := make([]model.MonthlyPlan, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NumTourStarts != out[j].NumTourStarts {
			return out[i].NumTourStarts > out[j].NumTourStarts
		}
		return out[i].Month < out[j].Month
	})
	return out
}
