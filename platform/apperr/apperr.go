// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer maps them to
// status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindNotFound indicates a resource was not found or is out of scope.
	KindNotFound
	// KindValidation indicates invalid input data.
	KindValidation
	// KindConflict indicates a conflict with existing state (duplicate, stale version).
	KindConflict
	// KindForbidden indicates the action is not allowed for the principal.
	KindForbidden
	// KindUnauthorized indicates no principal could be resolved.
	KindUnauthorized
	// KindBadRequest indicates a malformed request.
	KindBadRequest
	// KindInternal indicates an unexpected internal error.
	KindInternal
	// KindGone indicates a resource that existed but is no longer available.
	KindGone
	// KindInvalidReference indicates a foreign key points at a missing row.
	KindInvalidReference
	// KindInvalidTransition indicates an illegal state machine edge.
	KindInvalidTransition
	// KindSchedulingConflict indicates a time overlap with an existing booking.
	KindSchedulingConflict
	// KindExternalSyncFailure indicates a failed external calendar sync.
	// It is recorded on the entity and normally never returned to callers.
	KindExternalSyncFailure
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindNotFound:            "not_found",
	KindValidation:          "validation_error",
	KindConflict:            "conflict",
	KindForbidden:           "forbidden",
	KindUnauthorized:        "unauthenticated",
	KindBadRequest:          "bad_request",
	KindInternal:            "internal",
	KindGone:                "gone",
	KindInvalidReference:    "invalid_reference",
	KindInvalidTransition:   "invalid_transition",
	KindSchedulingConflict:  "scheduling_conflict",
	KindExternalSyncFailure: "external_sync_failure",
}

// String returns the machine readable name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
	Details any    // Structured context for the caller (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for this error kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindBadRequest, KindInvalidReference:
		return http.StatusBadRequest
	case KindConflict, KindSchedulingConflict:
		return http.StatusConflict
	case KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindInternal:
		return http.StatusInternalServerError
	case KindGone:
		return http.StatusGone
	case KindExternalSyncFailure:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the operation on the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithDetails attaches structured details to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Conflict creates a conflict error (e.g., duplicate resource).
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Forbidden creates a forbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Unauthorized creates an unauthenticated error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// InvalidReference creates a foreign key violation error.
func InvalidReference(message string) *Error {
	return New(KindInvalidReference, message)
}

// InvalidTransition creates an illegal state transition error.
func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message)
}

// SchedulingConflict creates a time overlap error. Details should carry the
// conflicting bookings and suggested alternatives.
func SchedulingConflict(message string, details any) *Error {
	return New(KindSchedulingConflict, message).WithDetails(details)
}

// GetKind extracts the error kind from an error chain.
// Returns KindUnknown if no *Error is present.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
