// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package apperr defines the centralized error handling framework for the Solace core.

It provides a rich error type that bridges the gap between low-level storage or
network failures and the discriminated outcomes the embedding application needs
(retry, re-prompt, surface to the user).

Architecture:

  - AppError: A struct containing a machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Validation, RateLimited, Unauthorized, Unavailable, Storage.
  - Mapping: Every error leaving a service boundary is wrapped as an [AppError].

The Cause field is for local logging only and must never be rendered to the
user, to avoid leaking storage or transport internals.
*/
package apperr

import (
	"errors"
	"fmt"
)

// Machine-readable error codes for the Solace core taxonomy.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUnavailable  = "UNAVAILABLE"
	CodeStorage      = "STORAGE_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError is the canonical error type for the Solace core.
//
// It carries a machine-readable code, a client-safe message, an optional
// cause, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for logging only and is never shown to users
// to avoid leaking internal implementation details (e.g., storage paths).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "VALIDATION_ERROR").
	Code string `json:"code"`
	// Message is a human-readable description safe to surface to the user.
	Message string `json:"error"`
	// Cause is the underlying error, used for local logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR results.
	Details []FieldError `json:"details,omitempty"`
	// RetryAfterMinutes carries the remaining lockout window for RATE_LIMITED.
	RetryAfterMinutes int `json:"retry_after_minutes,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Caller Errors

// Validation creates a VALIDATION_ERROR [AppError] with optional per-field details.
func Validation(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
		Details: details,
	}
}

// RateLimited creates a RATE_LIMITED [AppError] carrying the remaining
// lockout window in whole minutes (rounded up, minimum 1).
func RateLimited(retryAfterMinutes int) *AppError {
	if retryAfterMinutes < 1 {
		retryAfterMinutes = 1
	}
	return &AppError{
		Code:              CodeRateLimited,
		Message:           fmt.Sprintf("Too many attempts. Please try again in %d minutes.", retryAfterMinutes),
		RetryAfterMinutes: retryAfterMinutes,
	}
}

// Unauthorized creates an UNAUTHORIZED [AppError] for rejected credentials or MFA codes.
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: msg,
	}
}

// Unavailable creates an UNAVAILABLE [AppError] for missing hardware or enrollment.
func Unavailable(msg string) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: msg,
	}
}

// NotFound creates a NOT_FOUND [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Record") // Returns "Record not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: resource + " not found",
	}
}

// Conflict creates a CONFLICT [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: msg,
	}
}

// # Infrastructure Errors

// Storage creates a STORAGE_ERROR [AppError] wrapping a secure-store or
// structured-store failure. The cause is stored for logging but is never
// surfaced to the user.
func Storage(msg string, cause error) *AppError {
	return &AppError{
		Code:    CodeStorage,
		Message: msg,
		Cause:   cause,
	}
}

// Internal creates an INTERNAL_ERROR [AppError] wrapping an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
		Cause:   cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsCode reports whether err carries the given machine-readable code.
func IsCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
