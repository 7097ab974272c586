package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateDayConfig indicates two day configs share the same date.
	ErrDuplicateDayConfig = errors.New("capacity: duplicate day config")
	// ErrDuplicateEventSlot indicates two event slots share the same date.
	ErrDuplicateEventSlot = errors.New("capacity: duplicate event slot")
	// ErrAdmissionRepositoryMissing indicates a snapshot or order repository dependency is absent.
	ErrAdmissionRepositoryMissing = errors.New("admission service: repository is not configured")
	// ErrAdmissionInvalidInput signals malformed commands such as empty carts or missing dates.
	ErrAdmissionInvalidInput = errors.New("admission service: invalid input")
	// ErrProductNotFound indicates the requested product does not exist in the catalog.
	ErrProductNotFound = errors.New("admission service: product not found")
	// ErrCapacityExceeded is returned when the authoritative capacity re-check refuses an order.
	ErrCapacityExceeded = errors.New("admission service: capacity exceeded")
)

// CapacityError carries the refused decision so callers can show the reason verbatim.
type CapacityError struct {
	Decision CapacityDecision
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	if e == nil {
		return ErrCapacityExceeded.Error()
	}
	return fmt.Sprintf("%s: %s (%s)", ErrCapacityExceeded.Error(), e.Decision.Reason, e.Decision.Status)
}

// Unwrap allows errors.Is(err, ErrCapacityExceeded).
func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }
