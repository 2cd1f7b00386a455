package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/service"
)

// ReviewHandler serves /reviews and /tours/:tourId/reviews.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

type createReviewReq struct {
	Review string `json:"review" validate:"required,min=5,max=1000"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Tour   uint64 `json:"tour"`
}

type updateReviewReq struct {
	Review *string `json:"review" validate:"omitnil,min=5,max=1000"`
	Rating *int    `json:"rating" validate:"omitnil,min=1,max=5"`
}

// tourScope returns the tour id of a nested route, 0 when not nested.
func tourScope(c echo.Context) (uint64, error) {
	if c.Param("tourId") == "" {
		return 0, nil
	}
	return pathID(c, "tourId")
}

// List returns reviews, all or of the tour in the path.
func (h *ReviewHandler) List(c echo.Context) error {
	tourID, err := tourScope(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	reviews, err := h.Reviews.List(ctx, tourID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"results": len(reviews),
		"data":    echo.Map{"reviews": reviews},
	})
}

// Get returns one review.
func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.Get(ctx, id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "review", rv)
}

// Create posts a review by the signed-in user. On the nested route the tour
// comes from the path, otherwise from the body.
func (h *ReviewHandler) Create(c echo.Context, me model.User) error {
	var req createReviewReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tourID, err := tourScope(c)
	if err != nil {
		return err
	}
	if tourID == 0 {
		tourID = req.Tour
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.Create(ctx, me, service.CreateReviewInput{Review: req.Review, Rating: req.Rating, TourID: tourID})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "review", rv)
}

// Update patches a review.
func (h *ReviewHandler) Update(c echo.Context, me model.User) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateReviewReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	rv, err := h.Reviews.Update(ctx, me, id, service.UpdateReviewInput{Review: req.Review, Rating: req.Rating})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "review", rv)
}

// Delete removes a review.
func (h *ReviewHandler) Delete(c echo.Context, me model.User) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Reviews.Delete(ctx, me, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
