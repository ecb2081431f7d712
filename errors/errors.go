package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// StreamError is the unified error type delivered through terminal failure
// signals.
type StreamError struct {
	// Code is a machine-readable error code.
	Code Code
	// Message is a human-readable description.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the string representation of the error.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StreamError) Unwrap() error { return e.Cause }

// New creates a StreamError with the given code and message.
func New(code Code, message string) *StreamError {
	return &StreamError{Code: code, Message: message}
}

// --- Constructors ---

// BackPressure creates the failure delivered when a buffer saturates.
func BackPressure(message string) *StreamError {
	return &StreamError{Code: CodeBackPressure, Message: message}
}

// InvalidRequest creates the failure delivered for a non-positive demand
// request.
func InvalidRequest() *StreamError {
	return &StreamError{Code: CodeInvalidRequest, Message: "invalid request, must be greater than 0"}
}

// MapperReturnedNil creates the failure delivered when a mapper produces a
// nil publisher.
func MapperReturnedNil() *StreamError {
	return &StreamError{Code: CodeMapperReturnedNil, Message: "the mapper returned a nil publisher"}
}

// SupplierReturnedNil creates the failure delivered when a supplier produces
// a nil publisher.
func SupplierReturnedNil() *StreamError {
	return &StreamError{Code: CodeSupplierReturnedNil, Message: "the supplier returned a nil publisher"}
}

// CallbackFailure wraps an error returned by a user callback.
func CallbackFailure(cause error) *StreamError {
	return &StreamError{Code: CodeCallbackFailure, Message: "a callback failed", Cause: cause}
}

// ExecutionRejected wraps the error returned by an executor refusing a task.
func ExecutionRejected(cause error) *StreamError {
	return &StreamError{Code: CodeExecutionRejected, Message: "the executor rejected the task", Cause: cause}
}

// HasCode reports whether err or any error in its tree carries code.
func HasCode(err error, code Code) bool {
	if se, ok := err.(*StreamError); ok && se.Code == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return HasCode(u.Unwrap(), code)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if HasCode(e, code) {
				return true
			}
		}
	}
	return false
}

// IsBackPressure reports whether err signals buffer saturation.
func IsBackPressure(err error) bool { return HasCode(err, CodeBackPressure) }

// --- Composite ---

// CompositeError aggregates several failures raised by one subscription,
// e.g. a failure callback erroring while handling the original failure, or
// postponed flat-map failures from multiple inner streams.
type CompositeError struct {
	Causes []error
}

// Composite builds a CompositeError from the given causes, flattening nested
// composites.
func Composite(causes ...error) *CompositeError {
	flat := make([]error, 0, len(causes))
	for _, cause := range causes {
		if cause == nil {
			continue
		}
		var ce *CompositeError
		if stderrors.As(cause, &ce) {
			flat = append(flat, ce.Causes...)
			continue
		}
		flat = append(flat, cause)
	}
	return &CompositeError{Causes: flat}
}

// Error returns the string representation of all aggregated failures.
func (e *CompositeError) Error() string {
	parts := make([]string, len(e.Causes))
	for i, cause := range e.Causes {
		parts[i] = cause.Error()
	}
	return fmt.Sprintf("%d failures: [%s]", len(e.Causes), strings.Join(parts, "; "))
}

// Unwrap exposes the aggregated failures to errors.Is and errors.As.
func (e *CompositeError) Unwrap() []error { return e.Causes }
