package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

const userColumns = "id,name,email,photo,role,password_hash,password_changed_at," +
	"password_reset_token,password_reset_expires,active,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UpdateUserParams lists the profile columns that may change. Nil fields
// are left untouched.
type UpdateUserParams struct {
	Name  *string
	Email *string
	Photo *string
	Role  *model.Role
}

func (p UpdateUserParams) empty() bool {
	return p.Name == nil && p.Email == nil && p.Photo == nil && p.Role == nil
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u         model.User
		role      string
		changedAt sql.NullTime
		resetTok  sql.NullString
		resetExp  sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &role, &u.PasswordHash, &changedAt,
		&resetTok, &resetExp, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	if changedAt.Valid {
		t := changedAt.Time
		u.PasswordChangedAt = &t
	}
	if resetTok.Valid {
		tok := resetTok.String
		u.PasswordResetToken = &tok
	}
	if resetExp.Valid {
		t := resetExp.Time
		u.PasswordResetExpires = &t
	}
	return u, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u (PasswordHash already computed) and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	if u.Photo == "" {
		u.Photo = "default.jpg"
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, photo, role, password_hash, password_changed_at) VALUES (?,?,?,?,?,?)",
		strings.TrimSpace(u.Name), normalizeEmail(u.Email), u.Photo, string(u.Role), u.PasswordHash, u.PasswordChangedAt)
	if err != nil {
		if IsDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches an active user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? AND active=1 LIMIT 1", normalizeEmail(email)))
	return u, notFound(err)
}

// GetByID fetches an active user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND active=1 LIMIT 1", id))
	return u, notFound(err)
}

// List returns active users ordered by id.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE active=1 ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SavePassword writes a new hash and change time. Any outstanding reset
// token is cleared in the same statement.
func (r *UserRepo) SavePassword(ctx context.Context, id uint64, hash string, changedAt *time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?, password_changed_at=?,
		 password_reset_token=NULL, password_reset_expires=NULL
		 WHERE id=? AND active=1`, hash, changedAt, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// UpdateProfile applies the non-nil fields of p.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p UpdateUserParams) error {
	if p.empty() {
		return nil
	}
	var (
		sets []string
		args []any
	)
	if p.Name != nil {
		sets, args = append(sets, "name=?"), append(args, strings.TrimSpace(*p.Name))
	}
	if p.Email != nil {
		sets, args = append(sets, "email=?"), append(args, normalizeEmail(*p.Email))
	}
	if p.Photo != nil {
		sets, args = append(sets, "photo=?"), append(args, *p.Photo)
	}
	if p.Role != nil {
		sets, args = append(sets, "role=?"), append(args, string(*p.Role))
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		fmt.Sprintf("UPDATE users SET %s WHERE id=? AND active=1", strings.Join(sets, ", ")), args...)
	if err != nil {
		if IsDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	// MySQL reports 0 affected rows when values are unchanged; confirm existence instead.
	if n, _ := res.RowsAffected(); n == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

// Deactivate soft-deletes a user; it disappears from every default lookup.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET active=0 WHERE id=? AND active=1", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
