package pollen

// mapped applies fn to the resolution of t.
type mapped[T, U any] struct {
	t  Task[T]
	fn func(T, error) (U, error)
}

func (m *mapped[T, U]) Poll(w *Waker) Poll[U] {
	p := m.t.Poll(w)
	if p.IsPending() {
		return Pending[U]()
	}
	return Resolve(m.fn(p.Result()))
}

func (m *mapped[T, U]) Close() { Drop(m.t) }

// Map returns a task resolving to fn applied to t's value. Errors pass
// through untouched.
func Map[T, U any](t Task[T], fn func(T) U) Task[U] {
	return &mapped[T, U]{t: t, fn: func(v T, err error) (U, error) {
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	}}
}

// MapErr returns a task whose errors are replaced by fn(err).
func MapErr[T any](t Task[T], fn func(error) error) Task[T] {
	return &mapped[T, T]{t: t, fn: func(v T, err error) (T, error) {
		if err != nil {
			return v, fn(err)
		}
		return v, nil
	}}
}

// Recover returns a task that turns an error into a value.
func Recover[T any](t Task[T], fn func(error) T) Task[T] {
	return &mapped[T, T]{t: t, fn: func(v T, err error) (T, error) {
		if err != nil {
			return fn(err), nil
		}
		return v, nil
	}}
}

// chain runs first, then the task built from its resolution.
type chain[T, U any] struct {
	first  Task[T]
	next   func(T, error) Task[U]
	second Task[U]
}

func (c *chain[T, U]) Poll(w *Waker) Poll[U] {
	if c.second == nil {
		p := c.first.Poll(w)
		if p.IsPending() {
			return Pending[U]()
		}
		c.second = c.next(p.Result())
		c.first = nil
	}
	return c.second.Poll(w)
}

func (c *chain[T, U]) Close() {
	if c.second != nil {
		Drop(c.second)
		return
	}
	Drop(c.first)
}

// Then continues with the task fn builds from t's value and error.
func Then[T, U any](t Task[T], fn func(T, error) Task[U]) Task[U] {
	return &chain[T, U]{first: t, next: fn}
}

// AndThen continues with fn(v) once t succeeds. Errors skip fn.
func AndThen[T, U any](t Task[T], fn func(T) Task[U]) Task[U] {
	return Then(t, func(v T, err error) Task[U] {
		if err != nil {
			return Error[U](err)
		}
		return fn(v)
	})
}

// OrElse continues with fn(err) when t fails. Values skip fn.
func OrElse[T any](t Task[T], fn func(error) Task[T]) Task[T] {
	return Then(t, func(v T, err error) Task[T] {
		if err != nil {
			return fn(err)
		}
		return Value(v)
	})
}

type catchPanic[T any] struct {
	t    Task[T]
	done bool
	out  Poll[T]
}

// CatchPanic returns a task that resolves to a [*PanicError] if polling t
// panics. The panicking task is not polled again.
func CatchPanic[T any](t Task[T]) Task[T] {
	return &catchPanic[T]{t: t}
}

func (c *catchPanic[T]) Poll(w *Waker) Poll[T] {
	if c.done {
		return c.out
	}
	var p Poll[T]
	if pe := catch(func() { p = c.t.Poll(w) }); pe != nil {
		c.done, c.out = true, Fail[T](pe)
		return c.out
	}
	return p
}

func (c *catchPanic[T]) Close() {
	if !c.done {
		Drop(c.t)
	}
}
