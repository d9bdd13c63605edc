package pollen

import "io"

// Stream produces a sequence of values over time.
//
// PollNext returns [Ready] with the next item, [Pending] when no item is
// available yet (with the same waker contract as [Task.Poll]), or [Fail].
// A failure with [io.EOF] ends the stream; any other error describes one
// item and the stream may be polled again. Once a stream has returned
// io.EOF it keeps returning io.EOF.
type Stream[T any] interface {
	PollNext(w *Waker) Poll[T]
}

// StreamFunc adapts an ordinary function to the [Stream] interface.
type StreamFunc[T any] func(w *Waker) Poll[T]

// PollNext calls f(w).
func (f StreamFunc[T]) PollNext(w *Waker) Poll[T] { return f(w) }

// Sink consumes a sequence of values with backpressure.
//
// A producer calls PollReady until it resolves, then StartSend exactly
// once, and repeats. PollFlush resolves once everything sent so far has
// been handed on. PollClose flushes and closes the sink.
type Sink[T any] interface {
	PollReady(w *Waker) Poll[struct{}]
	StartSend(v T) error
	PollFlush(w *Waker) Poll[struct{}]
	PollClose(w *Waker) Poll[struct{}]
}

// Next returns a task resolving to the next item of s, or to [io.EOF].
func Next[T any](s Stream[T]) Task[T] {
	return TaskFunc[T](s.PollNext)
}

// IsEOF reports whether p is the end-of-stream marker.
func IsEOF[T any](p Poll[T]) bool {
	return p.IsReady() && p.Err() == io.EOF
}
