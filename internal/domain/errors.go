package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repository implementations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRecord indicates an active record with the same identity
	// already exists.
	ErrDuplicateRecord = errors.New("duplicate active record")

	// ErrVersionConflict indicates a compare-and-set write lost to a
	// concurrent writer. The caller should reload and retry.
	ErrVersionConflict = errors.New("record version conflict")

	// ErrRepositoryUnavailable indicates the backing store could not be
	// reached. Propagated unchanged; retry is the caller's decision.
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

// ValidationError reports a structural invariant violation. It is raised
// before any state change; a record that fails validation is never
// partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalServiceError reports a transport-level failure of the external
// classifier. It carries the provider identity and the raw message so an
// operator can diagnose the failure.
type ExternalServiceError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("external service %s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("external service %s: %v", e.Provider, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// MalformedExternalResponse reports that the external classifier returned
// a payload that could not be parsed into the expected verdict. The
// payload excerpt is preserved for diagnosis; the caller must not guess a
// classification from it.
type MalformedExternalResponse struct {
	Provider string
	Excerpt  string
	Err      error
}

func (e *MalformedExternalResponse) Error() string {
	return fmt.Sprintf("malformed response from %s: %v (payload: %q)", e.Provider, e.Err, e.Excerpt)
}

func (e *MalformedExternalResponse) Unwrap() error {
	return e.Err
}

// excerptLimit caps how much of a raw payload is retained in errors.
const excerptLimit = 200

// Excerpt truncates a raw payload for inclusion in an error message.
func Excerpt(payload string) string {
	if len(payload) <= excerptLimit {
		return payload
	}
	return payload[:excerptLimit] + "..."
}
