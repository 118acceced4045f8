// Package shared contains common domain types, errors and events that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Storage and external service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "application", "student", "notification"
	Op      string // Operation that failed, e.g., "Approve", "Submit"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Application domain errors
var (
	ErrApplicationNotFound      = NewDomainError("application", "Find", ErrNotFound, "application not found")
	ErrApplicationAlreadyExists = NewDomainError("application", "Submit", ErrAlreadyExists, "You have already applied for this scholarship.")
	ErrUnknownStatus            = NewDomainError("application", "Validate", ErrInvalidInput, "unknown application status")
	ErrUnknownAction            = NewDomainError("application", "Validate", ErrInvalidInput, "unknown quick action")
	ErrActionNotOffered         = NewDomainError("application", "Transition", ErrStateTransition, "action is not offered for the current status")
	ErrRemarksTooLong           = NewDomainError("application", "Validate", ErrValueOutOfRange, "remarks are too long")
	ErrTooManyDocuments         = NewDomainError("application", "Validate", ErrValueOutOfRange, "too many documents")
)

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrInvalidIncome        = NewDomainError("student", "Validate", ErrValueOutOfRange, "family income must be greater than zero")
	ErrInvalidAcademicScore = NewDomainError("student", "Validate", ErrValueOutOfRange, "academic score must be between 1.00 and 5.00 in steps of 0.25")
)

// Scholarship domain errors
var (
	ErrScholarshipNotFound = NewDomainError("scholarship", "Find", ErrNotFound, "scholarship not found")
	ErrScholarshipClosed   = NewDomainError("scholarship", "Apply", ErrInvalidState, "scholarship is not open for applications")
)

// Eligibility errors
var (
	ErrInvalidEligibilityLimit = NewDomainError("eligibility", "Validate", ErrValueOutOfRange, "eligibility limits must be positive")
)

// Store errors
var (
	ErrStoreUnavailable = NewDomainError("store", "Call", ErrServiceUnavailable, "application store is unavailable")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsStateTransition checks if the error is a rejected status transition.
func IsStateTransition(err error) bool {
	return errors.Is(err, ErrStateTransition) || errors.Is(err, ErrInvalidState)
}

// IsAuthorization checks if the error is an authentication or role failure.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsUnavailable checks if the error means the store or a dependency could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
