package pollen

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		require.Contains(t, fmt.Sprint(r), contains)
	}()
	fn()
}

// countingWaker returns a waker and the number of times it was woken.
func countingWaker() (*Waker, *atomic.Int32) {
	var n atomic.Int32
	return NewWaker(func() { n.Add(1) }), &n
}

// pendingForever never resolves and keeps no waker.
func pendingForever[T any]() Task[T] {
	return TaskFunc[T](func(*Waker) Poll[T] { return Pending[T]() })
}

// heldTask never resolves on its own but keeps a waker clone, so an
// executor cannot consider it stalled.
type heldTask[T any] struct {
	mu     sync.Mutex
	w      *Waker
	closed bool
}

func (h *heldTask[T]) Poll(w *Waker) Poll[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.w == nil {
		h.w = w.Clone()
	}
	return Pending[T]()
}

func (h *heldTask[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.w.Drop()
}

func (h *heldTask[T]) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// closeSpy is a pending task that records whether it was closed.
type closeSpy[T any] struct {
	closed atomic.Bool
}

func (c *closeSpy[T]) Poll(w *Waker) Poll[T] { return Pending[T]() }
func (c *closeSpy[T]) Close()                { c.closed.Store(true) }
