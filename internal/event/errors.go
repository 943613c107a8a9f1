package event

import (
	"errors"
	"fmt"
)

// ErrHandlerPanic is matched by PanicError through errors.Is.
var ErrHandlerPanic = errors.New("event handler panicked")

// PanicHandler receives recovered handler panics.
type PanicHandler func(err *PanicError)

// PanicError describes a recovered panic.
type PanicError struct {
	// Type is the event type being dispatched.
	Type string

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic during %q dispatch: %v", e.Type, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
