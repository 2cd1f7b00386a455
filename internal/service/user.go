package service

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// UserService covers self-service profile changes and admin user management.
// Cached tour responses embed guide profiles and reviewer names, so every
// successful write purges them.
type UserService struct {
	Users  UserStore
	Cache  CachePurger
	Logger *zap.Logger
}

// UpdateMeInput is what a user may change about themselves. Password and
// PasswordConfirm are only present to reject requests that carry them.
type UpdateMeInput struct {
	Name            *string
	Email           *string
	Password        *string
	PasswordConfirm *string
}

// AdminUpdateInput is what an admin may change about any user.
type AdminUpdateInput struct {
	Name  *string
	Email *string
	Photo *string
	Role  *model.Role
}

func (s *UserService) mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("No user found with that ID")
	case errors.Is(err, repository.ErrEmailExists):
		return apperror.Wrap(http.StatusBadRequest, "Duplicate field value: email. Please use another value!", err)
	}
	return err
}

// UpdateMe changes name and/or email of me. Any password field aborts the
// request before anything is written.
func (s *UserService) UpdateMe(ctx context.Context, me model.User, in UpdateMeInput) (model.User, error) {
	if in.Password != nil || in.PasswordConfirm != nil {
		return model.User{}, apperror.Validation("This route is not for password updates. Please use /updateMyPassword.")
	}
	if in.Email != nil && *in.Email == "" {
		return model.User{}, apperror.Validation("Please provide a valid email")
	}
	if in.Name != nil && *in.Name == "" {
		return model.User{}, apperror.Validation("Please tell us your name!")
	}
	if err := s.Users.UpdateProfile(ctx, me.ID, repository.UpdateUserParams{Name: in.Name, Email: in.Email}); err != nil {
		return model.User{}, s.mapErr(err)
	}
	purgeTours(ctx, s.Cache, s.Logger)
	u, err := s.Users.GetByID(ctx, me.ID)
	return u, s.mapErr(err)
}

// DeleteMe deactivates me.
func (s *UserService) DeleteMe(ctx context.Context, me model.User) error {
	return s.Delete(ctx, me.ID)
}

// List returns one page of active users.
func (s *UserService) List(ctx context.Context, page, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return s.Users.List(ctx, limit, (page-1)*limit)
}

// Get returns an active user.
func (s *UserService) Get(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	return u, s.mapErr(err)
}

// Update lets an admin change profile fields and role. Passwords are never
// changed here.
func (s *UserService) Update(ctx context.Context, id uint64, in AdminUpdateInput) (model.User, error) {
	if in.Role != nil && !in.Role.Valid() {
		return model.User{}, apperror.Validation("Role is either: user, guide, lead-guide, admin")
	}
	p := repository.UpdateUserParams{Name: in.Name, Email: in.Email, Photo: in.Photo, Role: in.Role}
	if err := s.Users.UpdateProfile(ctx, id, p); err != nil {
		return model.User{}, s.mapErr(err)
	}
	purgeTours(ctx, s.Cache, s.Logger)
	return s.Get(ctx, id)
}

// Delete deactivates a user.
func (s *UserService) Delete(ctx context.Context, id uint64) error {
	if err := s.Users.Deactivate(ctx, id); err != nil {
		return s.mapErr(err)
	}
	purgeTours(ctx, s.Cache, s.Logger)
	return nil
}
