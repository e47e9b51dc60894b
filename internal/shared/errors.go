package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or in-use violation.
	ErrConflict = errors.New("conflict")
	// ErrUnauthenticated indicates the principal could not be established.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrPermissionDenied indicates the principal lacks the required permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnavailable indicates an unexpected datastore or transaction failure.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError reports malformed input. Names carries every offending
// permission name, not just the first.
type ValidationError struct {
	Message string
	Names   []string
}

func (e *ValidationError) Error() string {
	if len(e.Names) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Names, ", "))
}

// NewValidationError builds a ValidationError with optional offending names.
func NewValidationError(message string, names ...string) *ValidationError {
	return &ValidationError{Message: message, Names: names}
}
