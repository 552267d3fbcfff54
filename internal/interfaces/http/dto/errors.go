package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/landedcost"
	"github.com/dropship/backend/internal/domain/shared"
)

// Error codes returned in ErrorInfo.Code
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeWarehouseNotFound   = "ERR_WAREHOUSE_NOT_FOUND"
	ErrCodeProviderFailure     = "ERR_PROVIDER_FAILURE"
	ErrCodeTimeout             = "ERR_TIMEOUT"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusConflict,
	ErrCodeWarehouseNotFound:   http.StatusUnprocessableEntity,
	ErrCodeProviderFailure:     http.StatusBadGateway,
	ErrCodeTimeout:             http.StatusGatewayTimeout,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorCodeFor classifies err into an error code and a client-safe message.
// A ProviderError wrapping a deadline is a provider failure, not a timeout.
func ErrorCodeFor(err error) (code, message string) {
	var (
		invalid   *landedcost.InvalidInputError
		provider  *forwarder.ProviderError
		warehouse *forwarder.WarehouseNotFoundError
		domainErr *shared.DomainError
	)
	switch {
	case errors.As(err, &invalid):
		return ErrCodeInvalidInput, invalid.Error()
	case errors.As(err, &warehouse):
		return ErrCodeWarehouseNotFound, warehouse.Error()
	case errors.As(err, &provider):
		return ErrCodeProviderFailure, provider.Error()
	case errors.Is(err, forwarder.ErrInvalidRequest):
		return ErrCodeInvalidInput, err.Error()
	case errors.Is(err, forwarder.ErrCredentialNotFound):
		return ErrCodeNotFound, err.Error()
	case errors.Is(err, fulfillment.ErrOrderInProgress):
		return ErrCodeConflict, err.Error()
	case errors.Is(err, fulfillment.ErrInvalidTransition),
		errors.Is(err, fulfillment.ErrNotRetryable),
		errors.Is(err, fulfillment.ErrTrackingSyncExhausted),
		errors.Is(err, fulfillment.ErrNoTrackingNumber),
		errors.Is(err, fulfillment.ErrStepAlreadySucceeded):
		return ErrCodeInvalidState, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout, "the request timed out"
	case errors.As(err, &domainErr):
		return codeForDomainError(domainErr), err.Error()
	}
	return ErrCodeInternal, "An unexpected error occurred"
}

func codeForDomainError(e *shared.DomainError) string {
	switch e.Code {
	case shared.ErrNotFound.Code:
		return ErrCodeNotFound
	case shared.ErrAlreadyExists.Code:
		return ErrCodeConflict
	case shared.ErrConcurrencyConflict.Code:
		return ErrCodeConcurrencyConflict
	case shared.ErrInvalidState.Code:
		return ErrCodeInvalidState
	case shared.ErrUpstreamFailure.Code:
		return ErrCodeProviderFailure
	default:
		// constructors report their own input codes, e.g. INVALID_SUBJECT
		return ErrCodeInvalidInput
	}
}
