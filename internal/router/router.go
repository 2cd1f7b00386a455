package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
)

// RegisterRoutes registers routes that need neither a session nor the API
// prefix. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterUsers registers the authentication and user routes under
// /api/v1/users. protect is the strict session guard.
func RegisterUsers(api *echo.Group, a *handler.AuthHandler, u *handler.UserHandler, protect echo.MiddlewareFunc) {
	g := api.Group("/users")

	// no session required
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.GET("/logout", a.Logout)
	g.POST("/logout", a.Logout)
	g.POST("/forgotPassword", a.ForgotPassword)
	g.PATCH("/resetPassword/:token", a.ResetPassword)

	// signed in
	g.PATCH("/updatePassword", handler.Authed(a.UpdatePassword), protect)
	g.PATCH("/updateMyPassword", handler.Authed(a.UpdatePassword), protect)
	g.GET("/me", handler.Authed(u.Me), protect)
	g.PATCH("/updateMe", handler.Authed(u.UpdateMe), protect)
	g.DELETE("/deleteMe", handler.Authed(u.DeleteMe), protect)

	// admin only
	admin := middleware.RestrictTo(model.RoleAdmin)
	g.GET("", u.List, protect, admin)
	g.GET("/:id", u.Get, protect, admin)
	g.PATCH("/:id", u.Update, protect, admin)
	g.DELETE("/:id", u.Delete, protect, admin)
}
