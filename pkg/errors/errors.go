package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"

	// Application errors
	ErrorTypeInternal ErrorType = "INTERNAL"

	// Infrastructure errors
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Client-facing messages for errors that carry no entity
const (
	MessageInvalidArgument     = "INVALID_ARGUMENT"
	MessageNotReadable         = "MESSAGE_NOT_READABLE"
	MessageInternalServerError = "INTERNAL_SERVER_ERROR"
	MessageExternalService     = "EXTERNAL_SERVICE_ERROR"
)

// Validation reasons reported in FieldError.Reason
const (
	ReasonNotBlank      = "NotBlank"
	ReasonNotNull       = "NotNull"
	ReasonPositive      = "Positive"
	ReasonInvalidFormat = "InvalidFormat"
	ReasonInvalidType   = "InvalidType"
	ReasonInvalid       = "Invalid"
)

// Criterion is a single (field, value) pair used for a lookup or a
// uniqueness check
type Criterion struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// FieldError describes why a single request field was rejected
type FieldError struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// AppError represents an application-specific error
type AppError struct {
	Type        ErrorType
	Message     string
	Entity      string
	Criteria    []Criterion
	FieldErrors []FieldError
	Cause       error
	StackTrace  string
	HTTPStatus  int
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if len(e.Criteria) > 0 {
		msg = fmt.Sprintf("%s %v", msg, e.Criteria)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Constructor functions for common error types

// NewValidationError creates an INVALID_ARGUMENT error listing rejected fields
func NewValidationError(fieldErrors ...FieldError) *AppError {
	return &AppError{
		Type:        ErrorTypeValidation,
		Message:     MessageInvalidArgument,
		FieldErrors: fieldErrors,
		HTTPStatus:  http.StatusBadRequest,
		StackTrace:  captureStackTrace(),
	}
}

// NewMessageNotReadableError creates an error for a body that cannot be decoded
func NewMessageNotReadableError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    MessageNotReadable,
		Cause:      cause,
		HTTPStatus: http.StatusBadRequest,
		StackTrace: captureStackTrace(),
	}
}

// NewEntityNotFoundError creates a not found error for an entity lookup
func NewEntityNotFoundError(entity string, criteria ...Criterion) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("Entity %s not found", entity),
		Entity:     entity,
		Criteria:   criteria,
		HTTPStatus: http.StatusNotFound,
		StackTrace: captureStackTrace(),
	}
}

// NewConflictError creates a conflict error for a uniqueness violation
func NewConflictError(message, entity string, criteria ...Criterion) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		Entity:     entity,
		Criteria:   criteria,
		HTTPStatus: http.StatusConflict,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewExternalError creates an external service error
func NewExternalError(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    fmt.Sprintf("external service '%s' error", service),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsExternal checks if an error is an external service error
func IsExternal(err error) bool {
	return IsType(err, ErrorTypeExternal)
}
