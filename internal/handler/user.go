package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/service"
)

// UserHandler serves the /users profile and admin endpoints.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler { return &UserHandler{Users: users} }

// updateMeReq uses pointers so an absent field is distinguishable from an
// empty one; password fields are decoded only to be refused.
type updateMeReq struct {
	Name            *string `json:"name" form:"name"`
	Email           *string `json:"email" form:"email" validate:"omitnil,email"`
	Password        *string `json:"password" form:"password"`
	PasswordConfirm *string `json:"passwordConfirm" form:"passwordConfirm"`
}

type adminUpdateReq struct {
	Name  *string     `json:"name"`
	Email *string     `json:"email" validate:"omitnil,email"`
	Photo *string     `json:"photo"`
	Role  *model.Role `json:"role" validate:"omitnil,oneof=user guide lead-guide admin"`
}

// Me returns the signed-in user.
func (h *UserHandler) Me(c echo.Context, me model.User) error {
	return success(c, http.StatusOK, "user", me.Public())
}

// UpdateMe changes name/email of the signed-in user.
func (h *UserHandler) UpdateMe(c echo.Context, me model.User) error {
	var req updateMeReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	// password fields are refused before validation or any write
	in := service.UpdateMeInput{Name: req.Name, Email: req.Email, Password: req.Password, PasswordConfirm: req.PasswordConfirm}
	if in.Password == nil && in.PasswordConfirm == nil {
		if err := c.Validate(&req); err != nil {
			return err
		}
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.UpdateMe(ctx, me, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "user", u.Public())
}

// DeleteMe deactivates the signed-in user.
func (h *UserHandler) DeleteMe(c echo.Context, me model.User) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.DeleteMe(ctx, me); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns active users (admin).
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	us, err := h.Users.List(ctx, queryInt(c, "page", 1), queryInt(c, "limit", 100))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(us),
		"data":    echo.Map{"users": publicUsers(us)},
	})
}

// Get returns one user (admin).
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Get(ctx, id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "user", u.Public())
}

// Update changes a user's profile or role (admin).
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req adminUpdateReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, id, service.AdminUpdateInput{Name: req.Name, Email: req.Email, Photo: req.Photo, Role: req.Role})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "user", u.Public())
}

// Delete deactivates a user (admin).
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
