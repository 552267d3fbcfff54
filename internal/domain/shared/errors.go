package shared

// DomainError is a coded error. Two DomainErrors match under errors.Is when
// their codes are equal, so callers can return a sentinel with a more
// specific message and still be classified at the HTTP boundary.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "invalid input")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "operation not allowed in the current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "record was modified concurrently")
	ErrUpstreamFailure     = NewDomainError("UPSTREAM_FAILURE", "external provider call failed")
)
