package pollen

import (
	"fmt"

	"github.com/sourcegraph/conc/panics"
)

// PanicError wraps a recovered panic value together with the goroutine
// stack trace captured at the point of the panic.
//
// Panics raised while polling a task, or inside work passed to
// [SpawnBlocking] and [Offload], resolve the task with a *PanicError.
// Executors additionally re-raise them unless [WithPanicAsError] is set.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

// Error returns a human-readable representation of the panic,
// including the value and the full stack trace.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// catch runs fn and converts a panic into a *PanicError.
func catch(fn func()) *PanicError {
	var c panics.Catcher
	c.Try(fn)
	r := c.Recovered()
	if r == nil {
		return nil
	}
	return &PanicError{Value: r.Value, Stack: string(r.Stack)}
}
