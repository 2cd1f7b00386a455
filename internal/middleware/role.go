package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4" // echo provides middleware chaining and context

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/service"
)

// RestrictTo returns a middleware that lets the request through only when
// the authenticated user's role is one of roles. It must run after Protect;
// a request without identity is answered with 401, a disallowed role with 403.
func RestrictTo(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return apperror.Authentication("You are not logged in! Please log in to get access.")
			}
			if err := service.Allow(u.Role, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
