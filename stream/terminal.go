package stream

import (
	"github.com/baxromumarov/pollen"
)

type foldTask[T, U any] struct {
	src  *fused[T]
	acc  U
	fn   func(U, T) (U, error)
	done bool
	out  pollen.Poll[U]
}

// Fold returns a task that combines every item into an accumulator,
// starting from init. It fails at the first item error or error from fn.
func Fold[T, U any](s pollen.Stream[T], init U, fn func(U, T) (U, error)) pollen.Task[U] {
	return &foldTask[T, U]{src: fuse(s), acc: init, fn: fn}
}

func (f *foldTask[T, U]) Poll(w *pollen.Waker) pollen.Poll[U] {
	if f.done {
		return f.out
	}
	for {
		p := f.src.PollNext(w)
		switch {
		case p.IsPending():
			return pollen.Pending[U]()
		case pollen.IsEOF(p):
			return f.finish(pollen.Ready(f.acc))
		case p.Err() != nil:
			return f.finish(pollen.Fail[U](p.Err()))
		}
		acc, err := f.fn(f.acc, p.Value())
		if err != nil {
			return f.finish(pollen.Fail[U](err))
		}
		f.acc = acc
	}
}

func (f *foldTask[T, U]) finish(out pollen.Poll[U]) pollen.Poll[U] {
	f.src.Close()
	f.done, f.out = true, out
	return out
}

func (f *foldTask[T, U]) Close() { f.src.Close() }

// Collect returns a task resolving to every item of s, in order.
func Collect[T any](s pollen.Stream[T]) pollen.Task[[]T] {
	return Fold(s, []T(nil), func(acc []T, v T) ([]T, error) {
		return append(acc, v), nil
	})
}

// ForEach returns a task that calls fn for every item and resolves to the
// number of items seen.
func ForEach[T any](s pollen.Stream[T], fn func(T) error) pollen.Task[int] {
	return Fold(s, 0, func(n int, v T) (int, error) {
		if err := fn(v); err != nil {
			return n, err
		}
		return n + 1, nil
	})
}

type forward[T any] struct {
	src     *fused[T]
	sink    pollen.Sink[T]
	item    T
	hasItem bool
	sent    int
	done    bool
	out     pollen.Poll[int]
}

// Forward returns a task that sends every item of s into sink, waiting
// on the sink's readiness before each send, and closes the sink once s
// ends. It resolves to the number of items sent.
func Forward[T any](s pollen.Stream[T], sink pollen.Sink[T]) pollen.Task[int] {
	return &forward[T]{src: fuse(s), sink: sink}
}

func (f *forward[T]) Poll(w *pollen.Waker) pollen.Poll[int] {
	if f.done {
		return f.out
	}
	for {
		if f.hasItem {
			r := f.sink.PollReady(w)
			switch {
			case r.IsPending():
				return pollen.Pending[int]()
			case r.Err() != nil:
				return f.finish(pollen.Fail[int](r.Err()))
			}
			if err := f.sink.StartSend(f.item); err != nil {
				return f.finish(pollen.Fail[int](err))
			}
			var zero T
			f.item, f.hasItem = zero, false
			f.sent++
		}

		p := f.src.PollNext(w)
		switch {
		case p.IsPending():
			if r := f.sink.PollFlush(w); r.IsReady() && r.Err() != nil {
				return f.finish(pollen.Fail[int](r.Err()))
			}
			return pollen.Pending[int]()
		case pollen.IsEOF(p):
			r := f.sink.PollClose(w)
			switch {
			case r.IsPending():
				return pollen.Pending[int]()
			case r.Err() != nil:
				return f.finish(pollen.Fail[int](r.Err()))
			}
			return f.finish(pollen.Ready(f.sent))
		case p.Err() != nil:
			return f.finish(pollen.Fail[int](p.Err()))
		}
		f.item, f.hasItem = p.Value(), true
	}
}

func (f *forward[T]) finish(out pollen.Poll[int]) pollen.Poll[int] {
	f.src.Close()
	f.done, f.out = true, out
	return out
}

func (f *forward[T]) Close() { f.src.Close() }
