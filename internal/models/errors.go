package models

import (
	"errors"
	"fmt"
)

// SafetyDenialMessage is the uniform error string carried by an
// ActionResult when the safety governor denies an action. Denials are
// outcomes, not errors; they are never logged at error level.
const SafetyDenialMessage = "Rate limited or in cooldown"

// ValidationError represents a validation error in models or request
// parameters
type ValidationError struct {
	message string
}

// NewValidationError creates a new validation error
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return e.message
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransportError marks a cluster API call that failed at the transport
// level. The affected namespace is skipped for the tick; never fatal.
type TransportError struct {
	Op        string
	Namespace string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cluster api %s failed in namespace %q: %v", e.Op, e.Namespace, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// OracleError marks a reasoning-oracle failure: client construction,
// the call itself, a timeout, or an unparseable response. Always
// degrades to the fallback analysis; never blocks remediation.
type OracleError struct {
	Stage string // "client", "generate", "timeout", "parse"
	Err   error
}

func (e *OracleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %s failed", e.Stage)
	}
	return fmt.Sprintf("oracle %s failed: %v", e.Stage, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// MutationError marks a remediation call the cluster rejected or that
// failed mid-flight. Its reason is carried into the ActionResult; the
// loop proceeds to the next issue.
type MutationError struct {
	Action   ActionKind
	Resource string
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s on %s failed: %v", e.Action, e.Resource, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// PersistenceError marks a report write failure. Logged as a warning;
// the run continues.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("writing report %s failed: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
