package handlers

import (
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/apis"

	"residence-booking/internal/status"
)

// toAPIError translates the service error taxonomy into HTTP responses.
// Anything unrecognized becomes a 500 with a generic message.
func toAPIError(err error) error {
	switch {
	case errors.Is(err, status.ErrBookingNotFound):
		return apis.NewNotFoundError("Booking not found", nil)
	case errors.Is(err, status.ErrListingNotFound):
		return apis.NewNotFoundError("Listing not found", nil)
	case errors.Is(err, status.ErrReferenceNotFound):
		return apis.NewNotFoundError("Payment reference not found", nil)
	case errors.Is(err, status.ErrKeyCodeInvalid):
		return apis.NewBadRequestError("Invalid key code", nil)
	case errors.Is(err, status.ErrKeyCodeExpired):
		return apis.NewBadRequestError("Key code has expired", nil)
	case errors.Is(err, status.ErrKeyCodeUnavailable):
		return apis.NewNotFoundError("Key code is no longer available", nil)
	case errors.Is(err, status.ErrAlreadyProcessed):
		return apis.NewBadRequestError("Payment already processed", nil)
	case errors.Is(err, status.ErrCircuitBreakerOpen):
		return apis.NewApiError(503, "Payment provider temporarily unavailable", nil)
	}

	var validation *status.ValidationError
	if errors.As(err, &validation) {
		return apis.NewBadRequestError(fmt.Sprintf("%s: %s", validation.Field, validation.Message), nil)
	}

	var authz *status.AuthorizationError
	if errors.As(err, &authz) {
		return apis.NewForbiddenError("Access denied", nil)
	}

	var conflict *status.StateConflictError
	if errors.As(err, &conflict) {
		return apis.NewApiError(409, fmt.Sprintf("Operation not allowed while booking is %s", conflict.Current), nil)
	}

	var overlap *status.AvailabilityConflictError
	if errors.As(err, &overlap) {
		return apis.NewApiError(409, "The listing is not available for these dates", nil)
	}

	var external *status.ExternalServiceError
	if errors.As(err, &external) {
		return apis.NewApiError(502, "Payment provider error", nil)
	}

	var signature *status.SignatureError
	if errors.As(err, &signature) {
		return apis.NewUnauthorizedError("Invalid signature", nil)
	}

	return apis.NewInternalServerError("internal error", err)
}
