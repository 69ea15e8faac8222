// Package errors defines custom error types and error handling utilities for the dataguard engine.
// Every failure that crosses the engine boundary is a GuardError carrying a stable code,
// so collaborators can branch on the kind of failure without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/dataguard/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// GuardError represents a structured error with additional metadata
type GuardError interface {
	error

	// Code returns the machine-readable error code
	Code() constants.ErrorCode

	// HTTPStatus returns the status an API layer should map the error to
	HTTPStatus() int

	// Description returns a human-readable description of the error class
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) GuardError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) GuardError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

// Error implements the error interface
func (e *baseError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *baseError) Code() constants.ErrorCode { return e.code }

func (e *baseError) HTTPStatus() int { return e.httpStatus }

func (e *baseError) Description() string { return e.description }

func (e *baseError) Unwrap() error { return e.cause }

// Is matches any GuardError with the same code, so errors.Is(err, ErrNotFound) works
// on values produced by the constructors below.
func (e *baseError) Is(target error) bool {
	var t GuardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code() == e.code
}

func (e *baseError) WithCause(cause error) GuardError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) GuardError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new GuardError with the specified parameters
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) GuardError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// Comparison Targets
// ================================================================================

// Targets for errors.Is. Never return these directly: they are shared values and
// WithMetadata would mutate them. Use the constructors instead.
var (
	ErrIntegrity              = NewError(constants.ErrCodeIntegrity, http.StatusUnprocessableEntity, "integrity error", "")
	ErrNotFound               = NewError(constants.ErrCodeNotFound, http.StatusNotFound, "not found", "")
	ErrModelNotReady          = NewError(constants.ErrCodeModelNotReady, http.StatusServiceUnavailable, "model not ready", "")
	ErrConcurrentModification = NewError(constants.ErrCodeConcurrentModification, http.StatusConflict, "concurrent modification", "")
	ErrInvalidArgument        = NewError(constants.ErrCodeInvalidArgument, http.StatusBadRequest, "invalid argument", "")
	ErrStorage                = NewError(constants.ErrCodeStorage, http.StatusInternalServerError, "storage error", "")
)

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// Integrity creates an integrity error: the payload could not be fingerprinted
func Integrity(message string) GuardError {
	return NewError(
		constants.ErrCodeIntegrity,
		http.StatusUnprocessableEntity,
		"The content is empty or unreadable and cannot be fingerprinted.",
		message,
	)
}

// NotFound creates a not_found error for a resource kind and identifier
func NotFound(kind, id string) GuardError {
	return NewError(
		constants.ErrCodeNotFound,
		http.StatusNotFound,
		"The requested resource does not exist.",
		fmt.Sprintf("%s not found: %s", kind, id),
	).WithMetadata("kind", kind).WithMetadata("id", id)
}

// ModelNotReady is internal to the scorer and is never returned by the engine
func ModelNotReady(reason string) GuardError {
	return NewError(
		constants.ErrCodeModelNotReady,
		http.StatusServiceUnavailable,
		"No trained anomaly model is available.",
		reason,
	)
}

// ConcurrentModification is returned when a version append does not extend the chain head
func ConcurrentModification(documentID string, expected, actual int64) GuardError {
	return NewError(
		constants.ErrCodeConcurrentModification,
		http.StatusConflict,
		"The document was modified concurrently.",
		fmt.Sprintf("document %s: expected sequence %d, got %d", documentID, expected, actual),
	).WithMetadata("document_id", documentID).
		WithMetadata("expected_sequence", expected).
		WithMetadata("actual_sequence", actual)
}

// InvalidArgument creates an invalid_argument error
func InvalidArgument(message string) GuardError {
	return NewError(
		constants.ErrCodeInvalidArgument,
		http.StatusBadRequest,
		"The request is missing a required parameter or includes an invalid value.",
		message,
	)
}

// Storage wraps a failure of an underlying store
func Storage(op string, cause error) GuardError {
	return NewError(
		constants.ErrCodeStorage,
		http.StatusInternalServerError,
		"A storage operation failed.",
		op,
	).WithCause(cause)
}

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsGuardError finds the first GuardError in the chain
func AsGuardError(err error) (GuardError, bool) {
	var gErr GuardError
	if stderrors.As(err, &gErr) {
		return gErr, true
	}
	return nil, false
}

// IsGuardError checks if an error chain contains a GuardError
func IsGuardError(err error) bool {
	_, ok := AsGuardError(err)
	return ok
}

// WrapError wraps a generic error into a GuardError
func WrapError(err error, code constants.ErrorCode, message string) GuardError {
	var httpStatus int

	switch code {
	case constants.ErrCodeInvalidArgument:
		httpStatus = http.StatusBadRequest
	case constants.ErrCodeNotFound:
		httpStatus = http.StatusNotFound
	case constants.ErrCodeConcurrentModification:
		httpStatus = http.StatusConflict
	case constants.ErrCodeIntegrity:
		httpStatus = http.StatusUnprocessableEntity
	case constants.ErrCodeModelNotReady:
		httpStatus = http.StatusServiceUnavailable
	default:
		httpStatus = http.StatusInternalServerError
	}

	return NewError(code, httpStatus, message, message).WithCause(err)
}

func hasCode(err error, code constants.ErrorCode) bool {
	if gErr, ok := AsGuardError(err); ok {
		return gErr.Code() == code
	}
	return false
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	return hasCode(err, constants.ErrCodeNotFound)
}

// IsIntegrityError checks if an error is an integrity error.
func IsIntegrityError(err error) bool {
	return hasCode(err, constants.ErrCodeIntegrity)
}

// IsConcurrentModification checks if an error is a concurrent modification error.
func IsConcurrentModification(err error) bool {
	return hasCode(err, constants.ErrCodeConcurrentModification)
}

// IsModelNotReady checks if an error is a model not ready error.
func IsModelNotReady(err error) bool {
	return hasCode(err, constants.ErrCodeModelNotReady)
}

// IsInvalidArgumentError checks if an error is an invalid argument error.
func IsInvalidArgumentError(err error) bool {
	return hasCode(err, constants.ErrCodeInvalidArgument)
}

// IsStorageError checks if an error wraps a failing store.
func IsStorageError(err error) bool {
	return hasCode(err, constants.ErrCodeStorage)
}

// ShouldLogError determines if an error should be logged at error level
func ShouldLogError(err error) bool {
	if gErr, ok := AsGuardError(err); ok {
		return gErr.HTTPStatus() >= 500
	}
	return true
}

//Personal.AI order the ending
