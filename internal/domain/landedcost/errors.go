package landedcost

import (
	"errors"
	"fmt"

	"github.com/dropship/backend/internal/domain/shared"
)

// ErrRateNotFound is returned by a RateTable when no duty/tax entry exists
// for the classification code and lane. The engine treats it as zero rates.
var ErrRateNotFound = errors.New("duty rate not found")

// InvalidInputError rejects structurally invalid product, route or policy data
type InvalidInputError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match the shared invalid-input sentinel
func (e *InvalidInputError) Unwrap() error {
	return shared.ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
