package stream

import (
	"io"

	"github.com/baxromumarov/pollen"
)

// fused wraps a source and remembers when it has ended, so adapters never
// poll an exhausted source again.
type fused[T any] struct {
	s     pollen.Stream[T]
	ended bool
}

func (f *fused[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	if f.ended {
		return pollen.Fail[T](io.EOF)
	}
	p := f.s.PollNext(w)
	if pollen.IsEOF(p) {
		f.ended = true
		pollen.Drop(f.s)
	}
	return p
}

func (f *fused[T]) Close() {
	if !f.ended {
		f.ended = true
		pollen.Drop(f.s)
	}
}

func fuse[T any](s pollen.Stream[T]) *fused[T] {
	if f, ok := s.(*fused[T]); ok {
		return f
	}
	return &fused[T]{s: s}
}

type mapStream[T, U any] struct {
	src *fused[T]
	fn  func(T) (U, error)
}

// Map transforms every item with fn. An error from fn fails that item.
func Map[T, U any](s pollen.Stream[T], fn func(T) (U, error)) pollen.Stream[U] {
	return &mapStream[T, U]{src: fuse(s), fn: fn}
}

func (m *mapStream[T, U]) PollNext(w *pollen.Waker) pollen.Poll[U] {
	p := m.src.PollNext(w)
	switch {
	case p.IsPending():
		return pollen.Pending[U]()
	case p.Err() != nil:
		return pollen.Fail[U](p.Err())
	}
	return pollen.Resolve(m.fn(p.Value()))
}

func (m *mapStream[T, U]) Close() { m.src.Close() }

type filterStream[T any] struct {
	src *fused[T]
	fn  func(T) bool
}

// Filter yields only the items for which fn returns true. Errors pass
// through.
func Filter[T any](s pollen.Stream[T], fn func(T) bool) pollen.Stream[T] {
	return &filterStream[T]{src: fuse(s), fn: fn}
}

func (f *filterStream[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	for {
		p := f.src.PollNext(w)
		if p.IsPending() || p.Err() != nil || f.fn(p.Value()) {
			return p
		}
	}
}

func (f *filterStream[T]) Close() { f.src.Close() }

type takeStream[T any] struct {
	src  *fused[T]
	left int
}

// Take ends the stream after n items. Per-item errors count as items.
func Take[T any](s pollen.Stream[T], n int) pollen.Stream[T] {
	return &takeStream[T]{src: fuse(s), left: n}
}

func (t *takeStream[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	if t.left <= 0 {
		t.src.Close()
		return pollen.Fail[T](io.EOF)
	}
	p := t.src.PollNext(w)
	if p.IsReady() && !pollen.IsEOF(p) {
		t.left--
	}
	return p
}

func (t *takeStream[T]) Close() { t.src.Close() }

type skipStream[T any] struct {
	src  *fused[T]
	left int
}

// Skip drops the first n items.
func Skip[T any](s pollen.Stream[T], n int) pollen.Stream[T] {
	return &skipStream[T]{src: fuse(s), left: n}
}

func (k *skipStream[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	for {
		p := k.src.PollNext(w)
		if k.left <= 0 || p.IsPending() || pollen.IsEOF(p) {
			return p
		}
		k.left--
	}
}

func (k *skipStream[T]) Close() { k.src.Close() }

// Peek calls fn for every successful item as it passes by.
func Peek[T any](s pollen.Stream[T], fn func(T)) pollen.Stream[T] {
	return Map(s, func(v T) (T, error) {
		fn(v)
		return v, nil
	})
}

type thenStream[T, U any] struct {
	src *fused[T]
	fn  func(T) pollen.Task[U]
	cur pollen.Task[U]
}

// Then maps every item to a task and yields the task results one at a
// time, in order. See [Buffered] for running several at once.
func Then[T, U any](s pollen.Stream[T], fn func(T) pollen.Task[U]) pollen.Stream[U] {
	return &thenStream[T, U]{src: fuse(s), fn: fn}
}

func (t *thenStream[T, U]) PollNext(w *pollen.Waker) pollen.Poll[U] {
	if t.cur == nil {
		p := t.src.PollNext(w)
		switch {
		case p.IsPending():
			return pollen.Pending[U]()
		case p.Err() != nil:
			return pollen.Fail[U](p.Err())
		}
		t.cur = t.fn(p.Value())
	}
	p := t.cur.Poll(w)
	if p.IsReady() {
		t.cur = nil
	}
	return p
}

func (t *thenStream[T, U]) Close() {
	if t.cur != nil {
		pollen.Drop(t.cur)
		t.cur = nil
	}
	t.src.Close()
}

type chainStream[T any] struct {
	first, second *fused[T]
}

// Chain yields every item of a, then every item of b.
func Chain[T any](a, b pollen.Stream[T]) pollen.Stream[T] {
	return &chainStream[T]{first: fuse(a), second: fuse(b)}
}

func (c *chainStream[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	if p := c.first.PollNext(w); !pollen.IsEOF(p) {
		return p
	}
	return c.second.PollNext(w)
}

func (c *chainStream[T]) Close() {
	c.first.Close()
	c.second.Close()
}

type batchStream[T any] struct {
	src   *fused[T]
	size  int
	batch []T
}

// Batch groups items into slices of n. The final batch may be shorter.
// A per-item error is yielded on its own; the partial batch is kept.
// Panics if n <= 0.
func Batch[T any](s pollen.Stream[T], n int) pollen.Stream[[]T] {
	if n <= 0 {
		panic("stream: Batch requires n > 0")
	}
	return &batchStream[T]{src: fuse(s), size: n}
}

func (b *batchStream[T]) PollNext(w *pollen.Waker) pollen.Poll[[]T] {
	for len(b.batch) < b.size {
		p := b.src.PollNext(w)
		switch {
		case p.IsPending():
			return pollen.Pending[[]T]()
		case pollen.IsEOF(p):
			if len(b.batch) == 0 {
				return pollen.Fail[[]T](io.EOF)
			}
			return pollen.Ready(b.flush())
		case p.Err() != nil:
			return pollen.Fail[[]T](p.Err())
		}
		b.batch = append(b.batch, p.Value())
	}
	return pollen.Ready(b.flush())
}

func (b *batchStream[T]) flush() []T {
	out := b.batch
	b.batch = nil
	return out
}

func (b *batchStream[T]) Close() { b.src.Close() }
