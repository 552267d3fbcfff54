package fulfillment

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Fulfillment Errors
// ---------------------------------------------------------------------------

// Missing workflows are reported with shared.ErrNotFound.
var (
	ErrInvalidTransition     = errors.New("fulfillment: invalid status transition")
	ErrStepAlreadySucceeded  = errors.New("fulfillment: step already succeeded")
	ErrOrderInProgress       = errors.New("fulfillment: order is being processed by another worker")
	ErrNotRetryable          = errors.New("fulfillment: order is not in a retryable state")
	ErrTrackingSyncExhausted = errors.New("fulfillment: tracking sync attempts exhausted")
	ErrNoTrackingNumber      = errors.New("fulfillment: no tracking number")
)

// TransitionError reports a rejected state change
type TransitionError struct {
	OrderID string
	From    OrderStatus
	To      OrderStatus
}

// Error implements the error interface
func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot transition from %s to %s", e.OrderID, e.From, e.To)
}

// Unwrap matches ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
