package ocpi

import (
	"errors"
	"fmt"
)

// Lifecycle precondition violations. Each out-of-order call site gets its own
// sentinel so callers can tell them apart.
var (
	ErrTransactionNotStopped = errors.New("ocpi: transaction has no stop record")
	ErrSessionNotStarted     = errors.New("ocpi: no session attached to transaction")
	ErrCdrAlreadyPosted      = errors.New("ocpi: cdr already posted for transaction")
)

// Identity conflicts are rejected, never auto-merged.
var (
	ErrUserAlreadyIssued = errors.New("ocpi: matched user is issued by the local organization")
	ErrTagAlreadyLocal   = errors.New("ocpi: matched tag belongs to the local organization")
)

// ValidationError rejects a malformed wire object before any mutation.
type ValidationError struct {
	Object string
	Field  string
	Code   StatusCode
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ocpi: invalid %s: missing or malformed %s (status %d)", e.Object, e.Field, int(e.Code))
}

// NewValidationError builds a validation error with the invalid-parameters code.
func NewValidationError(object, field string) *ValidationError {
	return &ValidationError{Object: object, Field: field, Code: StatusCodeInvalidParameters}
}

// StatusError is a non-success OCPI envelope returned by the remote platform.
type StatusError struct {
	Code    StatusCode
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ocpi: remote status %d: %s", int(e.Code), e.Message)
	}
	return fmt.Sprintf("ocpi: remote status %d: %s", int(e.Code), e.Code.Message())
}

// TransportError is a network or HTTP level failure. Batch callers count it,
// single-item callers propagate it.
type TransportError struct {
	Op         string
	URL        string
	HTTPStatus int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocpi: %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("ocpi: %s %s: http status %d", e.Op, e.URL, e.HTTPStatus)
}

func (e *TransportError) Unwrap() error { return e.Err }
