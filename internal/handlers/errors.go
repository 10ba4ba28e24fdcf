package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ticket-portal/internal/status"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// apiError turns a portal error into the API error the client sees.
func apiError(op string, err error) error {
	msg := status.Message(err)

	switch {
	case errors.Is(err, status.ErrValidation):
		var data validation.Errors
		if field := status.FieldOf(err); field != "" {
			data = validation.Errors{field: validation.NewError("validation_invalid_value", msg)}
		}
		return apis.NewBadRequestError(msg, data)
	case errors.Is(err, status.ErrBackendRejected):
		return apis.NewApiError(http.StatusUnprocessableEntity, msg, nil)
	case errors.Is(err, status.ErrUnauthorized):
		return apis.NewUnauthorizedError(msg, nil)
	case errors.Is(err, status.ErrBookingNotFound):
		return apis.NewNotFoundError("Ticket Not Found", nil)
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError(msg, nil)
	case errors.Is(err, status.ErrInFlight), errors.Is(err, status.ErrInvalidTransition):
		return apis.NewApiError(http.StatusConflict, msg, nil)
	case errors.Is(err, status.ErrNetwork),
		errors.Is(err, status.ErrUpstreamProvider),
		errors.Is(err, status.ErrPaymentVerificationFailed):
		slog.Warn(op, "error", err)
		return apis.NewApiError(http.StatusBadGateway, msg, nil)
	}

	slog.Error(op, "error", err)
	return apis.NewInternalServerError("Something went wrong. Please try again.", nil)
}

// ticketNotFound answers unknown booking references with a way back home.
func ticketNotFound(e *core.RequestEvent) error {
	return e.JSON(http.StatusNotFound, map[string]any{
		"status":  http.StatusNotFound,
		"message": "Ticket Not Found",
		"data":    map[string]string{"home": "/"},
	})
}
