package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"reelforge/internal/apperr"
)

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps the application error taxonomy onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrNotReady):
		return http.StatusConflict, "not_ready"
	case errors.Is(err, apperr.ErrTerminal):
		return http.StatusConflict, "terminal"
	case errors.Is(err, apperr.ErrBusy):
		return http.StatusServiceUnavailable, "busy"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError renders err as JSON with the mapped status.
func writeError(c echo.Context, err error) error {
	status, code := statusFor(err)
	body := errorBody{Error: err.Error(), Code: code, Fields: apperr.Fields(err)}

	var ae *apperr.AppError
	if errors.As(err, &ae) {
		body.Error = ae.Message
	}
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("handler error: %v", err)
		body.Error = "internal server error"
	}
	if status == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", "5")
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: "bad_request"})
}
