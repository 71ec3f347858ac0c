package domain

import (
	"errors"
	"fmt"

	"service-dispatch/internal/apperr"
)

func categorized(category error, msg string) error {
	return fmt.Errorf("%w: %w", category, errors.New(msg))
}

// Dispatch and lifecycle errors. Each one also matches its apperr category with errors.Is.
var (
	ErrInvalidTransition    = categorized(apperr.Conflict, "invalid status transition")
	ErrNotAuthorized        = categorized(apperr.Forbidden, "courier does not own the order")
	ErrAlreadyAssigned      = categorized(apperr.Conflict, "order already assigned")
	ErrOrderNotFound        = categorized(apperr.NotFound, "order not found")
	ErrCourierNotFound      = categorized(apperr.NotFound, "courier not found")
	ErrNoAvailableCouriers  = categorized(apperr.Conflict, "no available couriers")
	ErrCascadeExhausted     = categorized(apperr.Conflict, "all candidates exhausted")
	ErrInvalidCode          = categorized(apperr.Invalid, "invalid delivery code")
	ErrCodeAttemptsExceeded = categorized(apperr.Exhausted, "delivery code attempts exceeded")
	ErrActiveOrderExists    = categorized(apperr.Conflict, "active order exists")
)
