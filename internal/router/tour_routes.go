package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
)

// RegisterTours registers /api/v1/tours. Public reads go through the
// response cache; writes are limited to admins and lead guides. Reviews of
// a tour are reachable under /tours/:tourId/reviews.
func RegisterTours(api *echo.Group, t *handler.TourHandler, r *handler.ReviewHandler, protect, cache echo.MiddlewareFunc) {
	g := api.Group("/tours")
	staff := middleware.RestrictTo(model.RoleAdmin, model.RoleLeadGuide)

	g.GET("", t.List, cache)
	g.GET("/top-5-cheap", t.TopCheap, cache)
	g.GET("/tour-stats", t.Stats, cache)
	g.GET("/monthly-plan/:year", t.MonthlyPlan, protect,
		middleware.RestrictTo(model.RoleAdmin, model.RoleLeadGuide, model.RoleGuide))
	g.GET("/tours-within/:distance/center/:latlng/unit/:unit", t.Within, cache)
	g.GET("/distances/:latlng/unit/:unit", t.Distances, cache)
	g.GET("/:id", t.Get, cache)
	g.POST("", t.Create, protect, staff)
	g.PATCH("/:id", t.Update, protect, staff)
	g.DELETE("/:id", t.Delete, protect, staff)

	g.GET("/:tourId/reviews", r.List, protect)
	g.POST("/:tourId/reviews", handler.Authed(r.Create), protect, middleware.RestrictTo(model.RoleUser))
}
