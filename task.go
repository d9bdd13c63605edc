package pollen

// Task is a suspendable unit of computation.
//
// Poll advances the task as far as it can without blocking. When it
// cannot make progress it returns [Pending] and arranges for w to be woken
// once progress is possible again: a task that keeps w past the current
// call must store w.Clone() and eventually Wake or Drop that clone.
// Returning Pending without doing so leaves nothing to drive the task
// forward, which executors report as [ErrStalled].
//
// Poll must not be called concurrently on the same task. Executors
// guarantee this for the tasks they own.
//
// A task that holds resources may implement Close. Closing a task
// abandons it: combinators close the branches they no longer need.
// Work with an independent lifetime, such as a goroutine started by
// [SpawnBlocking], is not interrupted by Close.
type Task[T any] interface {
	Poll(w *Waker) Poll[T]
}

// TaskFunc adapts an ordinary function to the [Task] interface.
type TaskFunc[T any] func(w *Waker) Poll[T]

// Poll calls f(w).
func (f TaskFunc[T]) Poll(w *Waker) Poll[T] { return f(w) }

// Value returns a task that resolves immediately to v.
func Value[T any](v T) Task[T] {
	return TaskFunc[T](func(*Waker) Poll[T] { return Ready(v) })
}

// Error returns a task that resolves immediately to err.
func Error[T any](err error) Task[T] {
	p := Fail[T](err)
	return TaskFunc[T](func(*Waker) Poll[T] { return p })
}

// Lazy defers fn until the first poll and resolves to its result.
// fn runs exactly once; later polls return the same outcome.
func Lazy[T any](fn func() (T, error)) Task[T] {
	if fn == nil {
		panic("pollen: Lazy requires a non-nil function")
	}
	var (
		done bool
		out  Poll[T]
	)
	return TaskFunc[T](func(*Waker) Poll[T] {
		if !done {
			out = Resolve(fn())
			done = true
		}
		return out
	})
}

// Closer is implemented by tasks, streams and sinks that own resources.
type Closer interface {
	Close()
}

// Drop closes v if it implements [Closer]. It is a no-op otherwise.
func Drop(v any) {
	if c, ok := v.(Closer); ok && c != nil {
		c.Close()
	}
}
