package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/service"
)

// TourHandler serves /tours.
type TourHandler struct {
	Tours *service.TourService
}

func NewTourHandler(tours *service.TourService) *TourHandler { return &TourHandler{Tours: tours} }

type tourReq struct {
	Name          *string           `json:"name"`
	Duration      *int              `json:"duration"`
	MaxGroupSize  *int              `json:"maxGroupSize"`
	Difficulty    *model.Difficulty `json:"difficulty"`
	Price         *float64          `json:"price"`
	PriceDiscount *float64          `json:"priceDiscount"`
	Summary       *string           `json:"summary"`
	Description   *string           `json:"description"`
	ImageCover    *string           `json:"imageCover"`
	SecretTour    *bool             `json:"secretTour"`
	StartLocation *model.GeoPoint   `json:"startLocation"`
	Guides        []uint64          `json:"guides"`
	StartDates    []time.Time       `json:"startDates"`
}

func (r tourReq) input() service.TourInput {
	return service.TourInput{
		Name:          r.Name,
		Duration:      r.Duration,
		MaxGroupSize:  r.MaxGroupSize,
		Difficulty:    r.Difficulty,
		Price:         r.Price,
		PriceDiscount: r.PriceDiscount,
		Summary:       r.Summary,
		Description:   r.Description,
		ImageCover:    r.ImageCover,
		SecretTour:    r.SecretTour,
		StartLocation: r.StartLocation,
		Guides:        r.Guides,
		StartDates:    r.StartDates,
	}
}

func listResponse(c echo.Context, tours []model.Tour, total int64) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(tours),
		"total":   total,
		"data":    echo.Map{"tours": tours},
	})
}

// List supports ?page, ?limit, ?sort=price,-ratingsAverage and ?difficulty.
func (h *TourHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tours, total, err := h.Tours.List(ctx, repository.TourQuery{
		Difficulty: c.QueryParam("difficulty"),
		Sort:       c.QueryParam("sort"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 100),
	})
	if err != nil {
		return err
	}
	return listResponse(c, tours, total)
}

// TopCheap is the five best-rated, cheapest tours.
func (h *TourHandler) TopCheap(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tours, err := h.Tours.TopCheap(ctx)
	if err != nil {
		return err
	}
	return listResponse(c, tours, int64(len(tours)))
}

// Stats groups well-rated tours by difficulty.
func (h *TourHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	stats, err := h.Tours.Stats(ctx)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "stats", stats)
}

// MonthlyPlan counts tour starts per month of the year in the path.
func (h *TourHandler) MonthlyPlan(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return apperror.Validation("Invalid year: " + c.Param("year"))
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	plan, err := h.Tours.MonthlyPlan(ctx, year)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "plan", plan)
}

// Within lists the tours starting inside a circle:
// /tours-within/:distance/center/:latlng/unit/:unit with latlng as "lat,lng".
func (h *TourHandler) Within(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tours, err := h.Tours.ToursWithin(ctx, c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(tours),
		"data":    echo.Map{"tours": tours},
	})
}

// Distances reports how far each tour starts from /distances/:latlng/unit/:unit.
func (h *TourHandler) Distances(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	distances, err := h.Tours.Distances(ctx, c.Param("latlng"), c.Param("unit"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "distances", distances)
}

// Get returns a tour with guides and reviews.
func (h *TourHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tours.Get(ctx, id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "tour", t)
}

// Create adds a tour (admin, lead-guide).
func (h *TourHandler) Create(c echo.Context) error {
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tours.Create(ctx, req.input())
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "tour", t)
}

// Update patches a tour (admin, lead-guide).
func (h *TourHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tours.Update(ctx, id, req.input())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "tour", t)
}

// Delete removes a tour (admin, lead-guide).
func (h *TourHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Tours.Delete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
