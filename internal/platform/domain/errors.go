package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an application error for transport mapping.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeUpstream     ErrorCode = "UPSTREAM_ERROR"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is the error type shared by the domain, application and transport layers.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports that the named resource does not exist.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewValidationError reports invalid caller input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewConflictError reports a state conflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewUnauthorizedError reports missing or invalid credentials.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewForbiddenError reports insufficient privileges.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewUpstreamError reports a failed call to an external collaborator.
func NewUpstreamError(service string, err error) *AppError {
	return &AppError{
		Code:    CodeUpstream,
		Message: fmt.Sprintf("%s request failed", service),
		Err:     err,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// AsAppError extracts an *AppError from err.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == CodeNotFound
}
