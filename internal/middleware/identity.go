package middleware

// identity.go stores and retrieves the authenticated user on the Echo
// context. The guards in jwt.go set it; the account form refreshes it after
// an update.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/model"
)

const userKey = "auth.user"

// SetUser records u as the identity of the current request.
func SetUser(c echo.Context, u model.User) { c.Set(userKey, u) }

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok && u.ID != 0
}
