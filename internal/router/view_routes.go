package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/handler"
)

// RegisterViews registers the rendered pages. Public pages use the
// permissive guard so the header can greet a signed-in user.
func RegisterViews(e *echo.Echo, v *handler.ViewHandler, protect, isLoggedIn echo.MiddlewareFunc) {
	e.GET("/", v.Overview, isLoggedIn)
	e.GET("/tour/:slug", v.Tour, isLoggedIn)
	e.GET("/login", v.Login, isLoggedIn)
	e.GET("/me", handler.Authed(v.Account), protect)
	e.POST("/submit-user-data", handler.Authed(v.SubmitUserData), protect)
}
