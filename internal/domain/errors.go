// Package domain holds the core entities and error taxonomy shared by the
// lead-capture and publication-link subsystems.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced whitepaper, session, or link
	// does not exist. Handlers map it to a generic 404 that never reveals
	// which lookup failed.
	ErrNotFound = errors.New("resource not found")
	// ErrLinkExpired and ErrLinkRevoked are distinguished internally for
	// logging only; the public link-resolution response is identical to
	// ErrNotFound for all three.
	ErrLinkExpired = errors.New("publication link expired")
	ErrLinkRevoked = errors.New("publication link revoked")
	// ErrInvalidCredentials hides whether the admin password or token failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries field-level messages for a rejected capture form.
// It is raised before any persistence happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// NewValidationError creates a validation error with the given field messages.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// ExternalServiceError wraps a failed or timed-out call to the file host or
// CRM gateway. It is recorded on the relevant record's status field and never
// rolls back local state.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
