// Package errors defines the failure kinds surfaced through stream terminal
// signals. It implements a structured error type with machine-readable codes
// so subscribers can distinguish back-pressure saturation, protocol
// violations, and user callback failures, plus a composite error for the
// cases where two failures collide.
package errors
