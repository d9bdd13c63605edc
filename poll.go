package pollen

// Poll is the outcome of a single [Task.Poll] call. A Poll is either
// pending, ready with a value, or ready with an error.
//
// The zero value is pending.
type Poll[T any] struct {
	value T
	err   error
	ready bool
}

// Ready returns a resolved Poll carrying v.
func Ready[T any](v T) Poll[T] {
	return Poll[T]{value: v, ready: true}
}

// Fail returns a resolved Poll carrying err.
// It panics if err is nil.
func Fail[T any](err error) Poll[T] {
	if err == nil {
		panic("pollen: Fail requires a non-nil error")
	}
	return Poll[T]{err: err, ready: true}
}

// Pending returns a Poll that signals the task cannot make progress yet.
func Pending[T any]() Poll[T] {
	return Poll[T]{}
}

// Resolve returns [Fail] when err is non-nil and [Ready] otherwise.
func Resolve[T any](v T, err error) Poll[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ready(v)
}

// IsReady reports whether the poll resolved, with a value or an error.
func (p Poll[T]) IsReady() bool { return p.ready }

// IsPending reports whether the task is still suspended.
func (p Poll[T]) IsPending() bool { return !p.ready }

// Value returns the resolved value, or the zero value when pending or failed.
func (p Poll[T]) Value() T { return p.value }

// Err returns the resolution error, if any.
func (p Poll[T]) Err() error { return p.err }

// Result returns the value and error together.
func (p Poll[T]) Result() (T, error) { return p.value, p.err }
