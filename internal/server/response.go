package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"StockPulse/internal/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

// statusFor maps a pipeline error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrFetchExhausted), errors.Is(err, model.ErrMalformedPayload):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c echo.Context, details []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request", Details: details})
}

func appError(c echo.Context, err error) error {
	return c.JSON(statusFor(err), ErrorResponse{Error: model.UserMessage(err)})
}
