package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents the type of error
type ErrorCode string

const (
	// Client errors
	ErrBadRequest   ErrorCode = "BAD_REQUEST"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"

	// Server errors
	ErrInternal        ErrorCode = "INTERNAL_ERROR"
	ErrUpstream        ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrDataIntegrity   ErrorCode = "DATA_INTEGRITY_ERROR"
	ErrConfiguration   ErrorCode = "CONFIGURATION_ERROR"
	ErrStoreError      ErrorCode = "STORE_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError adds an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithStatusCode overrides the HTTP status code, used where an upstream
// status is passed through to the client verbatim
func (e *AppError) WithStatusCode(status int) *AppError {
	e.StatusCode = status
	return e
}

// Constructor functions for common errors

// NewBadRequest creates a bad request error
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUnauthorized creates an unauthorized error
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       ErrUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbidden creates a forbidden error
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       ErrForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFound creates a not found error
func NewNotFound(resource string) *AppError {
	return &AppError{
		Code:       ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// NewValidation creates a validation error
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       ErrValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewInternal creates an internal server error
func NewInternal(message string) *AppError {
	return &AppError{
		Code:       ErrInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewUpstream creates an external service error
func NewUpstream(message string) *AppError {
	return &AppError{
		Code:       ErrUpstream,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewDataIntegrity creates a data integrity error for records missing
// fields required by an operation
func NewDataIntegrity(message string) *AppError {
	return &AppError{
		Code:       ErrDataIntegrity,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewConfiguration creates a server misconfiguration error
func NewConfiguration(message string) *AppError {
	return &AppError{
		Code:       ErrConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewStoreError creates a state store error
func NewStoreError(message string) *AppError {
	return &AppError{
		Code:       ErrStoreError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrNotFound
	}
	return false
}

// IsUnauthorized checks if error is an unauthorized error
func IsUnauthorized(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrUnauthorized
	}
	return false
}

// IsUpstream checks if error is an external service error
func IsUpstream(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrUpstream
	}
	return false
}
