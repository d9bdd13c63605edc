package stream

import (
	"io"

	"github.com/baxromumarov/pollen"
)

// FromSlice returns a stream yielding items in order.
func FromSlice[T any](items []T) pollen.Stream[T] {
	var idx int
	return pollen.StreamFunc[T](func(*pollen.Waker) pollen.Poll[T] {
		if idx >= len(items) {
			return pollen.Fail[T](io.EOF)
		}
		v := items[idx]
		idx++
		return pollen.Ready(v)
	})
}

// FromResults returns a stream yielding each result as a value or a
// per-item error.
func FromResults[T any](items []pollen.Result[T]) pollen.Stream[T] {
	var idx int
	return pollen.StreamFunc[T](func(*pollen.Waker) pollen.Poll[T] {
		if idx >= len(items) {
			return pollen.Fail[T](io.EOF)
		}
		r := items[idx]
		idx++
		return pollen.Resolve(r.Value, r.Err)
	})
}

// FromFunc returns a stream that calls fn for every item. fn returns
// io.EOF to end the stream; it must not block.
func FromFunc[T any](fn func() (T, error)) pollen.Stream[T] {
	var ended bool
	return pollen.StreamFunc[T](func(*pollen.Waker) pollen.Poll[T] {
		if ended {
			return pollen.Fail[T](io.EOF)
		}
		v, err := fn()
		if err == io.EOF {
			ended = true
		}
		return pollen.Resolve(v, err)
	})
}

// Once returns a stream yielding the outcome of t and then ending.
func Once[T any](t pollen.Task[T]) pollen.Stream[T] {
	return &once[T]{t: t}
}

type once[T any] struct {
	t pollen.Task[T]
}

func (o *once[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	if o.t == nil {
		return pollen.Fail[T](io.EOF)
	}
	p := o.t.Poll(w)
	if p.IsReady() {
		o.t = nil
	}
	return p
}

func (o *once[T]) Close() {
	if o.t != nil {
		pollen.Drop(o.t)
		o.t = nil
	}
}

// Empty returns a stream that ends immediately.
func Empty[T any]() pollen.Stream[T] {
	return pollen.StreamFunc[T](func(*pollen.Waker) pollen.Poll[T] {
		return pollen.Fail[T](io.EOF)
	})
}
