package status

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyProcessed   = errors.New("payment: already processed")
	ErrReferenceNotFound  = errors.New("payment: reference not found")
	ErrBookingNotFound    = errors.New("booking: not found")
	ErrListingNotFound    = errors.New("listing: not found")
	ErrKeyCodeInvalid     = errors.New("key code: invalid")
	ErrKeyCodeExpired     = errors.New("key code: expired")
	ErrKeyCodeUnavailable = errors.New("key code: not available")
	ErrCircuitBreakerOpen = errors.New("external: circuit breaker is open")
)

// ValidationError reports malformed or out-of-range input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError reports an actor acting on a resource it has no rights over.
type AuthorizationError struct {
	Actor    string
	Resource string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization: %s has no rights over %s", e.Actor, e.Resource)
}

func Unauthorized(actor, resource string) *AuthorizationError {
	return &AuthorizationError{Actor: actor, Resource: resource}
}

// StateConflictError reports an operation invoked outside its precondition status.
type StateConflictError struct {
	Operation string
	Current   string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("state conflict: %s not allowed while booking is %q", e.Operation, e.Current)
}

func StateConflict(operation, current string) *StateConflictError {
	return &StateConflictError{Operation: operation, Current: current}
}

// AvailabilityConflictError reports a date overlap with a blocking booking.
type AvailabilityConflictError struct {
	ListingID string
	Start     string
	End       string
}

func (e *AvailabilityConflictError) Error() string {
	return fmt.Sprintf("availability conflict: listing %s is taken between %s and %s", e.ListingID, e.Start, e.End)
}

func AvailabilityConflict(listingID, start, end string) *AvailabilityConflictError {
	return &AvailabilityConflictError{ListingID: listingID, Start: start, End: end}
}

// ExternalServiceError wraps a gateway or geocoder failure. Booking state is
// never mutated because of one.
type ExternalServiceError struct {
	Provider string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external: %s: %v", e.Provider, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func External(provider string, err error) *ExternalServiceError {
	return &ExternalServiceError{Provider: provider, Err: err}
}

// SignatureError reports a webhook whose signature did not match the raw body.
type SignatureError struct {
	Provider string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("signature: invalid %s webhook signature", e.Provider)
}

func BadSignature(provider string) *SignatureError {
	return &SignatureError{Provider: provider}
}
