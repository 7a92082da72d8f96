// Package errs holds the error vocabulary shared by every layer of the service.
//
// Validation errors (ValueIsRequired, ValueIsInvalid, ValueIsOutOfRange, VersionIsInvalid) and lookup
// errors (ObjectNotFound) sit next to the order workflow errors: InvalidTransition, PermissionDenied,
// PreconditionFailed and VersionConflict. Each typed error unwraps to its sentinel so callers can use
// errors.Is, and Code maps any error to the stable code sent to HTTP and websocket clients.
package errs
