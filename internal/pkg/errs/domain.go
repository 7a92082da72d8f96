package errs

import (
	"errors"
	"fmt"
)

// InvalidTransitionError reports an edge that is not part of a state graph.
// From and To hold the string form of the states involved.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func NewInvalidTransitionError(entity string, from, to fmt.Stringer) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, From: from.String(), To: to.String()}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s cannot move from %s to %s", ErrInvalidTransition, e.Entity, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// PermissionDeniedError reports an actor that is not allowed to perform Action.
type PermissionDeniedError struct {
	Action string
	Reason string
}

func NewPermissionDeniedError(action string) *PermissionDeniedError {
	return &PermissionDeniedError{Action: action}
}

func NewPermissionDeniedErrorWithReason(action, reason string) *PermissionDeniedError {
	return &PermissionDeniedError{Action: action, Reason: reason}
}

func (e *PermissionDeniedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrPermissionDenied, e.Action, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrPermissionDenied, e.Action)
}

func (e *PermissionDeniedError) Unwrap() error {
	return ErrPermissionDenied
}

// PreconditionFailedError is the error form of an operation that returned false.
// Boundaries that must answer with an error (HTTP, sockets) use it.
type PreconditionFailedError struct {
	Operation string
}

func NewPreconditionFailedError(operation string) *PreconditionFailedError {
	return &PreconditionFailedError{Operation: operation}
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPreconditionFailed, e.Operation)
}

func (e *PreconditionFailedError) Unwrap() error {
	return ErrPreconditionFailed
}

// VersionConflictError reports an optimistic write against a stale version.
type VersionConflictError struct {
	Entity   string
	ID       string
	Expected int64
}

func NewVersionConflictError(entity, id string, expected int64) *VersionConflictError {
	return &VersionConflictError{Entity: entity, ID: id, Expected: expected}
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s is no longer at version %d", ErrVersionConflict, e.Entity, e.ID, e.Expected)
}

func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}

// Machine-readable error codes.
const (
	CodeInvalidTransition  = "invalid_transition"
	CodePermissionDenied   = "permission_denied"
	CodeNotFound           = "not_found"
	CodePreconditionFailed = "precondition_failed"
	CodeInvalidValue       = "invalid_value"
	CodeVersionConflict    = "version_conflict"
	CodeUnauthenticated    = "unauthenticated"
	CodeStorageFailure     = "storage_failure"
)

// Code classifies err into one of the stable codes above.
// Anything unclassified is treated as a storage failure.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrObjectNotFound):
		return CodeNotFound
	case errors.Is(err, ErrPreconditionFailed):
		return CodePreconditionFailed
	case errors.Is(err, ErrVersionConflict):
		return CodeVersionConflict
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsOutOfRange),
		errors.Is(err, ErrVersionIsInvalid):
		return CodeInvalidValue
	default:
		return CodeStorageFailure
	}
}
