package pollen

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled is the resolution of a one-shot receiver whose sender
	// was closed without sending.
	ErrCancelled = errors.New("pollen: cancelled")

	// ErrDisconnected is returned by sends whose receiving end is gone.
	ErrDisconnected = errors.New("pollen: disconnected")

	// ErrFull is returned by non-blocking sends on a bounded channel at capacity.
	ErrFull = errors.New("pollen: channel full")

	// ErrClosed is returned when using an endpoint after it was closed.
	ErrClosed = errors.New("pollen: closed")

	// ErrEmpty is returned by non-blocking receives with nothing to take.
	ErrEmpty = errors.New("pollen: empty")

	// ErrStalled resolves tasks that can never make progress: nothing is
	// ready and no outstanding waker can make anything ready.
	ErrStalled = errors.New("pollen: stalled: nothing left to drive it forward")

	// ErrExecutorClosed resolves tasks still pending when their executor shut down.
	ErrExecutorClosed = errors.New("pollen: executor closed")

	// ErrTimeout is returned by [Timeout] when the deadline passes first.
	ErrTimeout = errors.New("pollen: timeout")

	// ErrNotPaired is returned by [BiLock.Reunite] for halves of different locks.
	ErrNotPaired = errors.New("pollen: bilock halves are not a pair")
)

// SendError is returned by a failed send. It hands the unsent value back
// to the caller.
type SendError[T any] struct {
	Value  T
	Reason error
}

func (e *SendError[T]) Error() string {
	return fmt.Sprintf("pollen: send failed: %v", e.Reason)
}

func (e *SendError[T]) Unwrap() error { return e.Reason }

func sendError[T any](v T, reason error) *SendError[T] {
	return &SendError[T]{Value: v, Reason: reason}
}
