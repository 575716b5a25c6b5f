package errors

import (
	"errors"
	"fmt"
)

// Generic error types

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrNotConfigured indicates a component was used without required configuration
	ErrNotConfigured = errors.New("not configured")
)

// Guardrail errors

var (
	// ErrEmptyQuery indicates the query had no content
	ErrEmptyQuery = errors.New("empty query")

	// ErrQueryTooLong indicates the query exceeds the input ceiling
	ErrQueryTooLong = errors.New("query too long")

	// ErrRateLimitExceeded indicates the session exceeded its request rate
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrContentRejected indicates the query touches a prohibited topic
	ErrContentRejected = errors.New("content rejected")

	// ErrMaliciousInput indicates injection patterns or garbage input
	ErrMaliciousInput = errors.New("malicious input")

	// ErrEmptyResponse indicates an agent produced no text
	ErrEmptyResponse = errors.New("empty response")
)

// Agent and routing errors

var (
	// ErrAgentNotFound indicates a routing decision named an unknown agent
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentFailed indicates an agent invocation failed
	ErrAgentFailed = errors.New("agent invocation failed")

	// ErrRoutingFailed indicates the classifier could not produce a decision
	ErrRoutingFailed = errors.New("routing failed")

	// ErrSynthesisFailed indicates multi-agent synthesis failed
	ErrSynthesisFailed = errors.New("synthesis failed")
)

// Provider errors

var (
	// ErrProviderUnavailable indicates an upstream API (LLM, market data, news) failed
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidSymbol indicates an unknown ticker symbol
	ErrInvalidSymbol = errors.New("invalid ticker symbol")

	// ErrNoData indicates the upstream answered without usable data
	ErrNoData = errors.New("no data returned")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets validation errors match ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Unwrap exposes all wrapped errors to errors.Is / errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
