package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/repository"
)

const genericMessage = "Something went very wrong!"

// classify turns any error reaching the HTTP boundary into an AppError.
// Anything not recognised becomes a non-operational 500.
func classify(err error, c echo.Context) *apperror.AppError {
	if ae, ok := apperror.As(err); ok {
		return ae
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		if he.Code == http.StatusNotFound {
			msg = fmt.Sprintf("Can't find %s on this server!", c.Request().URL.Path)
		}
		return apperror.Wrap(he.Code, msg, err)
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		return apperror.Wrap(http.StatusBadRequest, "Invalid input data. "+strings.Join(msgs, ". "), err)
	}
	if repository.IsDuplicate(err) || errors.Is(err, repository.ErrDuplicate) {
		return apperror.Wrap(http.StatusConflict, "Duplicate field value. Please use another value!", err)
	}
	return &apperror.AppError{StatusCode: http.StatusInternalServerError, Message: genericMessage, Err: err}
}

// errorChain lists the messages of err and every error it wraps.
func errorChain(err error) []string {
	var out []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}

// NewHTTPErrorHandler renders every error returned by a handler or
// middleware. API paths get JSON, everything else the "error" page.
// In production only operational messages reach the client; in
// development the cause chain is included.
func NewHTTPErrorHandler(logger *zap.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ae := classify(err, c)
		if !ae.Operational || ae.StatusCode >= 500 {
			logger.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", ae.StatusCode),
				zap.Error(err))
		}

		msg := ae.Message
		if production && !ae.Operational {
			msg = genericMessage
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(ae.StatusCode)
		case strings.HasPrefix(c.Request().URL.Path, "/api"):
			body := echo.Map{"status": ae.Status(), "message": msg}
			if !production {
				body["error"] = err.Error()
				body["stack"] = errorChain(err)
			}
			werr = c.JSON(ae.StatusCode, body)
		default:
			if production && !ae.Operational {
				msg = "Please try again later."
			}
			werr = c.Render(ae.StatusCode, "error", echo.Map{"Title": "Something went wrong!", "Msg": msg})
		}
		if werr != nil {
			logger.Error("write error response", zap.Error(werr))
		}
	}
}
