package http

import (
	"errors"
	"net/http"

	"deliveryhub/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusFor maps a domain error to the HTTP status the API reports for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrObjectExists),
		errors.Is(err, errs.ErrInvalidState),
		errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrTerminalState):
		return http.StatusConflict
	case errors.Is(err, errs.ErrNoDefaultProviderConfigured),
		errors.Is(err, errs.ErrProviderUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrDispatch),
		errors.Is(err, errs.ErrCancel):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(ctx echo.Context, err error) error {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "Request failed",
			"method", ctx.Request().Method,
			"path", ctx.Path(),
			"error", err)
		message = http.StatusText(code)
	}
	return ctx.JSON(code, Error{Code: code, Message: message})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: message})
}
