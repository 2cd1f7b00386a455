package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"strings" // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/tour-booking/internal/model"
)

// SessionCookie is the cookie carrying the session token for browsers.
const SessionCookie = "jwt"

// Authenticator resolves a raw session token to its user. Implemented by
// service.AuthService.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// tokenFrom reads the session token from the Authorization header first and
// falls back to the jwt cookie. It returns "" when neither is present.
func tokenFrom(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// Protect returns an Echo middleware that admits only requests carrying a
// valid, current session token. Failures are returned as errors and
// rendered by the central error handler (401). On success the user is
// stored on the context for the handler adapter to pick up.
func Protect(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := auth.Authenticate(c.Request().Context(), tokenFrom(c))
			if err != nil {
				return err
			}
			SetUser(c, u)
			return next(c)
		}
	}
}

// IsLoggedIn is the permissive variant used by rendered pages: any failure
// leaves the request anonymous and it proceeds.
func IsLoggedIn(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := tokenFrom(c); raw != "" {
				if u, err := auth.Authenticate(c.Request().Context(), raw); err == nil {
					SetUser(c, u)
				}
			}
			return next(c)
		}
	}
}
