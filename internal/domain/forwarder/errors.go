package forwarder

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Forwarder Errors
// ---------------------------------------------------------------------------

var (
	ErrProviderFailure    = errors.New("forwarder: provider request failed")
	ErrWarehouseNotFound  = errors.New("forwarder: warehouse not found")
	ErrCredentialNotFound = errors.New("forwarder: credential not found")
	ErrInvalidRequest     = errors.New("forwarder: invalid request")
)

// Operation names used in ProviderError
const (
	OperationQuoteRate      = "quote_rate"
	OperationCreateShipment = "create_shipment"
	OperationGetTracking    = "get_tracking"
)

// ProviderError reports a failed call to a named forwarder. It matches
// ErrProviderFailure and, when set, the underlying cause.
type ProviderError struct {
	Provider   string
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("forwarder %s %s failed", e.Provider, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As
func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProviderFailure, e.Err}
	}
	return []error{ErrProviderFailure}
}

// NewProviderError builds a ProviderError
func NewProviderError(provider, operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Err:        cause,
	}
}

// WarehouseNotFoundError means the provider has no warehouse in the source country
type WarehouseNotFoundError struct {
	Provider string
	Country  string
}

// Error implements the error interface
func (e *WarehouseNotFoundError) Error() string {
	return fmt.Sprintf("forwarder %s has no warehouse in %s", e.Provider, e.Country)
}

// Unwrap matches ErrWarehouseNotFound
func (e *WarehouseNotFoundError) Unwrap() error {
	return ErrWarehouseNotFound
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
