package trace

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is the error kind every TraceError unwraps to: a symbolic
// value was used where a concrete value is required.
var ErrInvalidValue = errors.New("invalid value")

// UnsupportedArgumentError is returned when lowering meets a value that has
// no ir.Argument form: a mapping with a non-string key, or a leaf that is
// neither a proxy, nil, nor one of the base types.
//
// It is fatal for the trace. Nothing retries it.
type UnsupportedArgumentError struct {
	// Value is the offending value (the whole mapping for key errors).
	Value any

	// Reason describes what was unsupported.
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedArgumentError) Error() string {
	return fmt.Sprintf("unsupported argument: %s", e.Reason)
}

// TraceError is returned when traced code needs a concrete value from a
// symbolic one, such as branching on it or iterating it.
//
// The default Base tracer returns it from ToBool and Iter. A specialized
// tracer may override those hooks to support the construct instead.
type TraceError struct {
	// Op is the operation that needed a concrete value ("bool", "iter").
	Op string

	// Value is the display form of the offending proxy.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *TraceError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s (%s on %s)", e.Message, e.Op, e.Value)
	}
	return e.Message
}

// Unwrap reports the value-error kind.
func (e *TraceError) Unwrap() error {
	return ErrInvalidValue
}

// IsUnsupportedArgument returns true if err is or wraps an UnsupportedArgumentError.
func IsUnsupportedArgument(err error) bool {
	var ue *UnsupportedArgumentError
	return errors.As(err, &ue)
}

// IsTraceError returns true if err is or wraps a TraceError.
// Uses errors.As to handle wrapped errors.
func IsTraceError(err error) bool {
	var te *TraceError
	return errors.As(err, &te)
}

func newControlFlowError(p *Proxy) *TraceError {
	return &TraceError{
		Op:      "bool",
		Value:   p.String(),
		Message: "symbolically traced variables cannot be used as inputs to control flow",
	}
}

func newIterationError(p *Proxy) *TraceError {
	return &TraceError{
		Op:    "iter",
		Value: p.String(),
		Message: "proxy object cannot be iterated; this can be attempted when used in a for loop " +
			"or as a variadic argument, use Proxy.Unpack when the arity is known",
	}
}
