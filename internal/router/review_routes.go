package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
)

// RegisterReviews registers /api/v1/reviews. Every route requires a session.
func RegisterReviews(api *echo.Group, r *handler.ReviewHandler, protect echo.MiddlewareFunc) {
	g := api.Group("/reviews")
	owners := middleware.RestrictTo(model.RoleUser, model.RoleAdmin)

	g.GET("", r.List, protect)
	g.POST("", handler.Authed(r.Create), protect, middleware.RestrictTo(model.RoleUser))
	g.GET("/:id", r.Get, protect)
	g.PATCH("/:id", handler.Authed(r.Update), protect, owners)
	g.DELETE("/:id", handler.Authed(r.Delete), protect, owners)
}
