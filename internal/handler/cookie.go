package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	mw "github.com/iliyamo/tour-booking/internal/middleware"
)

// setSessionCookie stores token in the HttpOnly jwt cookie. Secure is only
// set in production so local development works over plain HTTP.
func setSessionCookie(c echo.Context, token string, expires time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     mw.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// LoggedOutValue replaces the session token on logout.
const LoggedOutValue = "loggedout"

func clearSessionCookie(c echo.Context, secure bool) {
	setSessionCookie(c, LoggedOutValue, time.Now().Add(10*time.Second), secure)
}
