package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/apperror"
	mw "github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/service"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// AuthedFunc is a handler that receives the authenticated user explicitly.
type AuthedFunc func(c echo.Context, me model.User) error

// Authed adapts fn to echo. The route must sit behind middleware.Protect;
// without an identity the request is refused with 401.
func Authed(fn AuthedFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		me, ok := mw.CurrentUser(c)
		if !ok {
			return apperror.Authentication(service.MsgNotLoggedIn)
		}
		return fn(c, me)
	}
}

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct{ v *validator.Validate }

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// bindAndValidate decodes the request into dst and runs its validate tags.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperror.Wrap(http.StatusBadRequest, "Invalid request body", err)
	}
	return c.Validate(dst)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid " + name + ": " + c.Param(name))
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// success writes the {"status":"success","data":{key: v}} envelope.
func success(c echo.Context, code int, key string, v any) error {
	return c.JSON(code, echo.Map{"status": "success", "data": echo.Map{key: v}})
}

func publicUsers(us []model.User) []model.PublicUser {
	out := make([]model.PublicUser, 0, len(us))
	for _, u := range us {
		out = append(out, u.Public())
	}
	return out
}
