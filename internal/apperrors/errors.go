// Package apperrors defines the typed error taxonomy shared by every core
// component. Fallible operations return one of these types wrapped in the
// standard error interface; only programmer errors are allowed to panic.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure for classification by callers and by
// the resilience fabric's retry policy.
type Code string

const (
	// CodeAuthenticationFailure covers missing, invalid, expired, or revoked credentials.
	CodeAuthenticationFailure Code = "AUTHENTICATION_FAILURE"
	// CodeAuthorizationFailure covers role or ownership checks that were denied.
	CodeAuthorizationFailure Code = "AUTHORIZATION_FAILURE"
	// CodeValidationFailure covers malformed input or an invariant violation.
	CodeValidationFailure Code = "VALIDATION_FAILURE"
	// CodeConflict covers optimistic lock loss or a uniqueness violation.
	CodeConflict Code = "CONFLICT"
	// CodeNotFound covers an absent entity.
	CodeNotFound Code = "NOT_FOUND"
	// CodeDependencyUnavailable covers a downstream failure with the circuit open and no fallback.
	CodeDependencyUnavailable Code = "DEPENDENCY_UNAVAILABLE"
	// CodeTransient covers a retryable failure absorbed by the retry layer.
	CodeTransient Code = "TRANSIENT_FAILURE"
	// CodeFatal covers a programmer error or an internally violated invariant.
	CodeFatal Code = "FATAL"
)

// AppError is the common shape for every typed error in this codebase.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the resilience fabric's retry layer should
// attempt this operation again. Authn/authz and validation failures are
// never retried; transient and dependency-unavailable failures are.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeTransient, CodeDependencyUnavailable:
		return true
	default:
		return false
	}
}

// New constructs an AppError with the given code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap constructs an AppError with the given code and message, wrapping err.
func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewAuthenticationFailure reports a rejected credential.
func NewAuthenticationFailure(message string) *AppError {
	return New(CodeAuthenticationFailure, message)
}

// NewAuthorizationFailure reports a denied role/ownership check.
func NewAuthorizationFailure(message string) *AppError {
	return New(CodeAuthorizationFailure, message)
}

// NewValidationFailure reports malformed input or an invariant violation.
func NewValidationFailure(message string) *AppError {
	return New(CodeValidationFailure, message)
}

// NewConflict reports an optimistic lock loss or uniqueness violation.
func NewConflict(message string) *AppError {
	return New(CodeConflict, message)
}

// NewNotFound reports an absent entity.
func NewNotFound(resource string, id interface{}) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s %v not found", resource, id))
}

// NewDependencyUnavailable reports an open breaker with no fallback configured.
func NewDependencyUnavailable(dependency string, cause error) *AppError {
	return Wrap(CodeDependencyUnavailable, fmt.Sprintf("%s is unavailable", dependency), cause)
}

// NewTransient reports a retryable failure.
func NewTransient(message string, cause error) *AppError {
	return Wrap(CodeTransient, message, cause)
}

// NewFatal reports a programmer error or violated internal invariant.
func NewFatal(message string, cause error) *AppError {
	return Wrap(CodeFatal, message, cause)
}

// CodeOf extracts the Code from err, returning CodeFatal if err does not
// wrap an *AppError (an unclassified error is treated as a programmer bug).
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeFatal
}

// IsRetryable reports whether err should be retried by the resilience fabric.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return false
}

// Sentinel errors for common well-known conditions, matched with errors.Is.
var (
	// ErrConflict indicates a stale optimistic write; the caller must re-read and retry.
	ErrConflict = New(CodeConflict, "conflicting concurrent update")
	// ErrNotFound indicates a generic absent-entity condition.
	ErrNotFound = New(CodeNotFound, "entity not found")
)
