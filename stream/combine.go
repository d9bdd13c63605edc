package stream

import (
	"io"

	"github.com/baxromumarov/pollen"
)

// Pair holds two values paired by [Zip].
type Pair[A, B any] struct {
	First  A
	Second B
}

type scanStream[T, R any] struct {
	src *fused[T]
	acc R
	fn  func(R, T) R
}

// Scan yields the running accumulation of fn over s, starting from
// initial. The first item yielded is fn(initial, first).
func Scan[T, R any](s pollen.Stream[T], initial R, fn func(R, T) R) pollen.Stream[R] {
	return &scanStream[T, R]{src: fuse(s), acc: initial, fn: fn}
}

func (s *scanStream[T, R]) PollNext(w *pollen.Waker) pollen.Poll[R] {
	p := s.src.PollNext(w)
	switch {
	case p.IsPending():
		return pollen.Pending[R]()
	case p.Err() != nil:
		return pollen.Fail[R](p.Err())
	}
	s.acc = s.fn(s.acc, p.Value())
	return pollen.Ready(s.acc)
}

func (s *scanStream[T, R]) Close() { s.src.Close() }

type zipStream[A, B any] struct {
	a     *fused[A]
	b     *fused[B]
	first A
	held  bool
}

// Zip pairs the items of a and b in order. It ends as soon as either
// input ends, closing the other.
func Zip[A, B any](a pollen.Stream[A], b pollen.Stream[B]) pollen.Stream[Pair[A, B]] {
	return &zipStream[A, B]{a: fuse(a), b: fuse(b)}
}

func (z *zipStream[A, B]) PollNext(w *pollen.Waker) pollen.Poll[Pair[A, B]] {
	if !z.held {
		p := z.a.PollNext(w)
		switch {
		case p.IsPending():
			return pollen.Pending[Pair[A, B]]()
		case pollen.IsEOF(p):
			z.Close()
			return pollen.Fail[Pair[A, B]](io.EOF)
		case p.Err() != nil:
			return pollen.Fail[Pair[A, B]](p.Err())
		}
		z.first, z.held = p.Value(), true
	}

	p := z.b.PollNext(w)
	switch {
	case p.IsPending():
		return pollen.Pending[Pair[A, B]]()
	case pollen.IsEOF(p):
		z.Close()
		return pollen.Fail[Pair[A, B]](io.EOF)
	case p.Err() != nil:
		return pollen.Fail[Pair[A, B]](p.Err())
	}
	out := Pair[A, B]{First: z.first, Second: p.Value()}
	var zero A
	z.first, z.held = zero, false
	return pollen.Ready(out)
}

func (z *zipStream[A, B]) Close() {
	z.a.Close()
	z.b.Close()
}

type mergeStream[T any] struct {
	srcs []*fused[T]
	next int
}

// Merge interleaves the items of every stream in srcs as they become
// ready. Sources are polled round-robin so none is starved. It ends once
// all of them have ended.
func Merge[T any](srcs ...pollen.Stream[T]) pollen.Stream[T] {
	m := &mergeStream[T]{srcs: make([]*fused[T], len(srcs))}
	for i, s := range srcs {
		m.srcs[i] = fuse(s)
	}
	return m
}

func (m *mergeStream[T]) PollNext(w *pollen.Waker) pollen.Poll[T] {
	for n := len(m.srcs); n > 0; n-- {
		if m.next >= len(m.srcs) {
			m.next = 0
		}
		i := m.next
		p := m.srcs[i].PollNext(w)
		if pollen.IsEOF(p) {
			m.srcs = append(m.srcs[:i], m.srcs[i+1:]...)
			continue
		}
		m.next = i + 1
		if p.IsReady() {
			return p
		}
	}
	if len(m.srcs) == 0 {
		return pollen.Fail[T](io.EOF)
	}
	return pollen.Pending[T]()
}

func (m *mergeStream[T]) Close() {
	for _, s := range m.srcs {
		s.Close()
	}
	m.srcs = nil
}
