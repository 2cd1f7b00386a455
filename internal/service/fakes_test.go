package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
	q "github.com/iliyamo/tour-booking/internal/queue"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// memUsers is an in-memory UserStore and ResetStore with the same
// visibility rules as the MySQL repositories.
type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.User
	writes int
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, u model.User) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == u.Email {
			return 0, repository.ErrEmailExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.Active = true
	m.rows[u.ID] = u
	m.writes++
	return u.ID, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok || !u.Active {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) List(_ context.Context, limit, offset int) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.rows {
		if u.Active {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memUsers) SavePassword(_ context.Context, id uint64, hash string, changedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok || !u.Active {
		return repository.ErrNotFound
	}
	u.PasswordHash, u.PasswordChangedAt = hash, changedAt
	u.PasswordResetToken, u.PasswordResetExpires = nil, nil
	m.rows[id] = u
	m.writes++
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uint64, p repository.UpdateUserParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok || !u.Active {
		return repository.ErrNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Photo != nil {
		u.Photo = *p.Photo
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	m.rows[id] = u
	m.writes++
	return nil
}

func (m *memUsers) Deactivate(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok || !u.Active {
		return repository.ErrNotFound
	}
	u.Active = false
	m.rows[id] = u
	m.writes++
	return nil
}

func (m *memUsers) SetResetToken(_ context.Context, id uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordResetToken, u.PasswordResetExpires = &hash, &exp
	m.rows[id] = u
	return nil
}

func (m *memUsers) ClearResetToken(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.rows[id]
	u.PasswordResetToken, u.PasswordResetExpires = nil, nil
	m.rows[id] = u
	return nil
}

func (m *memUsers) FindByResetToken(_ context.Context, hash string, now time.Time) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Active && u.PasswordResetToken != nil && *u.PasswordResetToken == hash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) get(id uint64) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

// memTours keeps tours with their rating fields.
type memTours struct {
	mu   sync.Mutex
	rows map[uint64]model.Tour
}

func newMemTours(ids ...uint64) *memTours {
	m := &memTours{rows: map[uint64]model.Tour{}}
	for _, id := range ids {
		m.rows[id] = model.Tour{ID: id, Name: "Tour", RatingsAverage: model.DefaultRatingsAverage}
	}
	return m
}

func (m *memTours) List(context.Context, repository.TourQuery) ([]model.Tour, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Tour
	for _, t := range m.rows {
		out = append(out, t)
	}
	return out, int64(len(out)), nil
}

func (m *memTours) GetByID(_ context.Context, id uint64) (model.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return model.Tour{}, repository.ErrNotFound
	}
	return t, nil
}

func (m *memTours) GetBySlug(_ context.Context, slug string) (model.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.Slug == slug {
			return t, nil
		}
	}
	return model.Tour{}, repository.ErrNotFound
}

func (m *memTours) Exists(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memTours) Create(_ context.Context, t model.Tour, _ []uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uint64(len(m.rows) + 1)
	m.rows[t.ID] = t
	return t.ID, nil
}

func (m *memTours) Update(_ context.Context, id uint64, p repository.UpdateTourParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.Name != nil {
		t.Name, t.Slug = *p.Name, *p.Slug
	}
	if p.StartLocation != nil {
		t.StartLocation = p.StartLocation
	}
	m.rows[id] = t
	return nil
}

func (m *memTours) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTours) UpdateRatings(_ context.Context, id uint64, r model.Ratings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.rows[id]
	t.RatingsQuantity, t.RatingsAverage = r.Quantity, r.Average
	m.rows[id] = t
	return nil
}

func (m *memTours) Stats(context.Context) ([]model.TourStats, error) { return nil, nil }

func (m *memTours) MonthlyPlan(context.Context, int) ([]model.MonthlyPlan, error) { return nil, nil }

// sphereMeters is the haversine distance on the same 6378.1 km sphere the
// MySQL queries use.
func sphereMeters(a, b model.GeoPoint) float64 {
	const r = 6378100
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat, dLng := rad(b.Lat-a.Lat), rad(b.Lng-a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * r * math.Asin(math.Sqrt(h))
}

func (m *memTours) Within(_ context.Context, lat, lng, radius float64) ([]model.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	center := model.GeoPoint{Lat: lat, Lng: lng}
	var out []model.Tour
	for _, t := range m.rows {
		if t.StartLocation != nil && !t.SecretTour && sphereMeters(*t.StartLocation, center) <= radius {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTours) Distances(_ context.Context, lat, lng float64) ([]model.TourDistance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from := model.GeoPoint{Lat: lat, Lng: lng}
	var out []model.TourDistance
	for _, t := range m.rows {
		if t.StartLocation != nil && !t.SecretTour {
			out = append(out, model.TourDistance{ID: t.ID, Name: t.Name, Distance: sphereMeters(*t.StartLocation, from)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// memReviews enforces the (tour, user) uniqueness of the reviews table.
type memReviews struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Review
}

func newMemReviews() *memReviews { return &memReviews{rows: map[uint64]model.Review{}} }

func (m *memReviews) Create(_ context.Context, rv model.Review) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TourID == rv.TourID && r.UserID == rv.UserID {
			return 0, repository.ErrDuplicate
		}
	}
	m.nextID++
	rv.ID = m.nextID
	m.rows[rv.ID] = rv
	return rv.ID, nil
}

func (m *memReviews) GetByID(_ context.Context, id uint64) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rv, ok := m.rows[id]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	return rv, nil
}

func (m *memReviews) List(_ context.Context, tourID uint64) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Review{}
	for _, rv := range m.rows {
		if tourID == 0 || rv.TourID == tourID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memReviews) Update(_ context.Context, id uint64, text *string, rating *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rv, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if text != nil {
		rv.Review = *text
	}
	if rating != nil {
		rv.Rating = *rating
	}
	m.rows[id] = rv
	return nil
}

func (m *memReviews) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memReviews) RatingStats(_ context.Context, tourID uint64) (int, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, sum := 0, 0
	for _, rv := range m.rows {
		if rv.TourID == tourID {
			n++
			sum += rv.Rating
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return n, float64(sum) / float64(n), nil
}

// stubMailer records reset mails and can be told to fail.
type stubMailer struct {
	fail bool
	sent []string
}

func (s *stubMailer) SendPasswordReset(to, _, resetURL string, _ time.Duration) error {
	if s.fail {
		return errors.New("smtp: connection refused")
	}
	s.sent = append(s.sent, to+" "+resetURL)
	return nil
}

type countingPurger struct{ groups []string }

func (p *countingPurger) Purge(_ context.Context, group string) error {
	p.groups = append(p.groups, group)
	return nil
}

type recordingPublisher struct{ events []q.ReviewChangedEvent }

func (r *recordingPublisher) PublishReviewChanged(_ context.Context, ev q.ReviewChangedEvent) error {
	r.events = append(r.events, ev)
	return nil
}
