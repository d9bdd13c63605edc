package stream

import (
	"sync"

	"github.com/baxromumarov/pollen"
)

var readyUnit = pollen.Ready(struct{}{})

// Collector is a [pollen.Sink] that keeps everything sent to it.
type Collector[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
}

// NewCollector returns an empty Collector.
func NewCollector[T any]() *Collector[T] { return &Collector[T]{} }

func (c *Collector[T]) PollReady(*pollen.Waker) pollen.Poll[struct{}] { return readyUnit }

func (c *Collector[T]) StartSend(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return pollen.ErrClosed
	}
	c.items = append(c.items, v)
	return nil
}

func (c *Collector[T]) PollFlush(*pollen.Waker) pollen.Poll[struct{}] { return readyUnit }

func (c *Collector[T]) PollClose(*pollen.Waker) pollen.Poll[struct{}] {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return readyUnit
}

// Items returns a copy of everything collected so far.
func (c *Collector[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Closed reports whether the sink has been closed.
func (c *Collector[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type drain[T any] struct{}

// Drain returns a sink that accepts and discards everything.
func Drain[T any]() pollen.Sink[T] { return drain[T]{} }

func (drain[T]) PollReady(*pollen.Waker) pollen.Poll[struct{}] { return readyUnit }
func (drain[T]) StartSend(T) error                             { return nil }
func (drain[T]) PollFlush(*pollen.Waker) pollen.Poll[struct{}] { return readyUnit }
func (drain[T]) PollClose(*pollen.Waker) pollen.Poll[struct{}] { return readyUnit }

type withSink[T, U any] struct {
	sink pollen.Sink[U]
	fn   func(T) (U, error)
}

// With returns a sink that converts each value with fn before handing it
// to sink. An error from fn is returned by StartSend.
func With[T, U any](sink pollen.Sink[U], fn func(T) (U, error)) pollen.Sink[T] {
	return &withSink[T, U]{sink: sink, fn: fn}
}

func (s *withSink[T, U]) PollReady(w *pollen.Waker) pollen.Poll[struct{}] {
	return s.sink.PollReady(w)
}

func (s *withSink[T, U]) StartSend(v T) error {
	u, err := s.fn(v)
	if err != nil {
		return err
	}
	return s.sink.StartSend(u)
}

func (s *withSink[T, U]) PollFlush(w *pollen.Waker) pollen.Poll[struct{}] {
	return s.sink.PollFlush(w)
}

func (s *withSink[T, U]) PollClose(w *pollen.Waker) pollen.Poll[struct{}] {
	return s.sink.PollClose(w)
}

type fanOut[T any] struct {
	sinks []pollen.Sink[T]
}

// FanOut returns a sink that sends every value to each of sinks. It is
// ready only when all of them are, so the slowest sink sets the pace.
func FanOut[T any](sinks ...pollen.Sink[T]) pollen.Sink[T] {
	return &fanOut[T]{sinks: sinks}
}

func (f *fanOut[T]) PollReady(w *pollen.Waker) pollen.Poll[struct{}] {
	return f.all(w, pollen.Sink[T].PollReady)
}

func (f *fanOut[T]) StartSend(v T) error {
	for _, s := range f.sinks {
		if err := s.StartSend(v); err != nil {
			return err
		}
	}
	return nil
}

func (f *fanOut[T]) PollFlush(w *pollen.Waker) pollen.Poll[struct{}] {
	return f.all(w, pollen.Sink[T].PollFlush)
}

func (f *fanOut[T]) PollClose(w *pollen.Waker) pollen.Poll[struct{}] {
	return f.all(w, pollen.Sink[T].PollClose)
}

// all polls op on every sink and resolves once each has. The first error
// wins.
func (f *fanOut[T]) all(w *pollen.Waker, op func(pollen.Sink[T], *pollen.Waker) pollen.Poll[struct{}]) pollen.Poll[struct{}] {
	pending := false
	for _, s := range f.sinks {
		p := op(s, w)
		switch {
		case p.IsPending():
			pending = true
		case p.Err() != nil:
			return p
		}
	}
	if pending {
		return pollen.Pending[struct{}]()
	}
	return readyUnit
}
