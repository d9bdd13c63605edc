package stream

import (
	"io"

	"github.com/baxromumarov/pollen"
)

type inflight[T any] struct {
	t   pollen.Task[T]
	out pollen.Poll[T]
}

type buffered[T any] struct {
	src     *fused[pollen.Task[T]]
	limit   int
	ordered bool
	queue   []*inflight[T]
}

// Buffered runs up to n tasks from s at once and yields their results in
// the order the tasks were produced.
// Panics if n <= 0.
func Buffered[T any](s pollen.Stream[pollen.Task[T]], n int) pollen.Stream[T] {
	if n <= 0 {
		panic("stream: Buffered requires n > 0")
	}
	return &buffered[T]{src: fuse(s), limit: n, ordered: true}
}

// BufferUnordered runs up to n tasks from s at once and yields each result
// as soon as it is available.
// Panics if n <= 0.
func BufferUnordered[T any](s pollen.Stream[pollen.Task[T]], n int) pollen.Stream[T] {
	if n <= 0 {
		panic("stream: BufferUnordered requires n > 0")
	}
	return &buffered[T]{src: fuse(s), limit: n}
}

// Ordered yields the results of tasks in argument order while driving all
// of them at once.
func Ordered[T any](tasks ...pollen.Task[T]) pollen.Stream[T] {
	return Buffered(FromSlice(tasks), max(1, len(tasks)))
}

// Unordered yields the results of tasks in completion order.
func Unordered[T any](tasks ...pollen.Task[T]) pollen.Stream[T] {
	return BufferUnordered(FromSlice(tasks), max(1, len(tasks)))
}

func (b *buffered[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	for len(b.queue) < b.limit {
		p := b.src.PollNext(w)
		if p.IsPending() || pollen.IsEOF(p) {
			break
		}
		if p.Err() != nil {
			b.queue = append(b.queue, &inflight[T]{out: pollen.Fail[T](p.Err())})
			continue
		}
		b.queue = append(b.queue, &inflight[T]{t: p.Value()})
	}

	ready := -1
	for i, f := range b.queue {
		if f.t != nil {
			if p := f.t.Poll(w); p.IsReady() {
				f.t, f.out = nil, p
			}
		}
		if f.t == nil && ready < 0 && (!b.ordered || i == 0) {
			ready = i
		}
	}
	if ready >= 0 {
		out := b.queue[ready].out
		b.queue = append(b.queue[:ready], b.queue[ready+1:]...)
		return out
	}
	if len(b.queue) == 0 && b.src.ended {
		return pollen.Fail[T](io.EOF)
	}
	return pollen.Pending[T]()
}

func (b *buffered[T]) Close() {
	for _, f := range b.queue {
		if f.t != nil {
			pollen.Drop(f.t)
		}
	}
	b.queue = nil
	b.src.Close()
}
