package pollen

import (
	"io"
	"sync"

	"github.com/eapache/queue"
)

type bounded[T any] struct {
	mu       sync.Mutex
	buf      *queue.Queue
	capacity int // 0 for unbounded
	reserved int // slots promised to senders by PollReady
	senders  int
	rxClosed bool
	rxWaker  *Waker
	waiters  waitList
}

// Sender is a producing handle of a bounded channel. Use [Sender.Clone]
// for additional producers.
//
// Sender implements [Sink]. A PollReady that resolves reserves one slot
// for this Sender, so the following StartSend cannot fail with [ErrFull]
// even when clones race for the buffer; closing the Sender returns an
// unused reservation. The Sink methods of one Sender must not be used
// from several goroutines at once; TrySend and Send may.
type Sender[T any] struct {
	ch       *bounded[T]
	closed   bool // guarded by ch.mu
	reserved bool // guarded by ch.mu
	ready    *parked
}

// Receiver is the consuming handle of a bounded channel. It implements
// [Stream]: items arrive in send order per Sender, and the stream ends
// with [io.EOF] once every Sender is closed and the buffer is drained.
type Receiver[T any] struct {
	ch *bounded[T]
}

// Bounded returns a channel buffering at most capacity items.
// Panics if capacity <= 0.
func Bounded[T any](capacity int) (*Sender[T], *Receiver[T]) {
	if capacity <= 0 {
		panic("pollen: Bounded requires capacity > 0")
	}
	return newChannel[T](capacity)
}

// Unbounded returns a channel whose buffer grows without limit. Sends
// never suspend and never fail with [ErrFull].
func Unbounded[T any]() (*Sender[T], *Receiver[T]) {
	return newChannel[T](0)
}

func newChannel[T any](capacity int) (*Sender[T], *Receiver[T]) {
	ch := &bounded[T]{
		buf:      queue.New(),
		capacity: capacity,
		senders:  1,
		waiters:  newWaitList(),
	}
	return &Sender[T]{ch: ch}, &Receiver[T]{ch: ch}
}

// checkLocked reports why the sender cannot deliver right now, if at all.
func (s *Sender[T]) checkLocked() error {
	switch {
	case s.closed:
		return ErrClosed
	case s.ch.rxClosed:
		return ErrDisconnected
	case s.reserved || s.ch.capacity == 0:
		return nil
	case s.ch.buf.Length()+s.ch.reserved >= s.ch.capacity:
		return ErrFull
	}
	return nil
}

// addLocked buffers v, spending this Sender's reservation if it holds
// one, and takes the receiver's waker for the caller to fire.
func (s *Sender[T]) addLocked(v T) *Waker {
	ch := s.ch
	ch.buf.Add(v)
	if s.reserved {
		s.reserved = false
		ch.reserved--
	}
	rw := ch.rxWaker
	ch.rxWaker = nil
	return rw
}

// TrySend buffers v without suspending. On failure it returns a
// [*SendError] holding v, with reason [ErrFull], [ErrDisconnected] or
// [ErrClosed].
func (s *Sender[T]) TrySend(v T) error {
	ch := s.ch
	ch.mu.Lock()
	if err := s.checkLocked(); err != nil {
		ch.mu.Unlock()
		return sendError(v, err)
	}
	rw := s.addLocked(v)
	ch.mu.Unlock()

	rw.Wake()
	return nil
}

// Send returns a task that buffers v, suspending while the channel is
// full. It fails with a [*SendError] when the receiver is gone.
func (s *Sender[T]) Send(v T) Task[struct{}] {
	return &sendTask[T]{s: s, v: v}
}

type sendTask[T any] struct {
	s    *Sender[T]
	v    T
	slot *parked
	done bool
	out  Poll[struct{}]
}

func (t *sendTask[T]) Poll(w *Waker) Poll[struct{}] {
	if t.done {
		return t.out
	}
	ch := t.s.ch
	ch.mu.Lock()
	err := t.s.checkLocked()
	if err == ErrFull {
		old := ch.waiters.park(&t.slot, w)
		ch.mu.Unlock()
		old.Drop()
		return Pending[struct{}]()
	}
	var rw *Waker
	if err == nil {
		rw = t.s.addLocked(t.v)
	}
	old := ch.waiters.unpark(&t.slot)
	ch.mu.Unlock()

	old.Drop()
	rw.Wake()
	t.done = true
	if err != nil {
		t.out = Fail[struct{}](sendError(t.v, err))
	} else {
		t.out = Ready(struct{}{})
	}
	return t.out
}

// Close abandons the send if it has not completed.
func (t *sendTask[T]) Close() {
	ch := t.s.ch
	ch.mu.Lock()
	old := ch.waiters.unpark(&t.slot)
	ch.mu.Unlock()
	old.Drop()
}

// Clone returns another Sender for the same channel. Cloning a closed
// Sender yields a closed Sender.
func (s *Sender[T]) Clone() *Sender[T] {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	if s.closed {
		return &Sender[T]{ch: s.ch, closed: true}
	}
	s.ch.senders++
	return &Sender[T]{ch: s.ch}
}

// Close drops this Sender. When the last Sender closes, the receiver
// drains the buffer and then ends with [io.EOF].
func (s *Sender[T]) Close() {
	ch := s.ch
	ch.mu.Lock()
	if s.closed {
		ch.mu.Unlock()
		return
	}
	s.closed = true
	ch.senders--
	var rw *Waker
	if ch.senders == 0 {
		rw, ch.rxWaker = ch.rxWaker, nil
	}
	var ws []*Waker
	if s.reserved {
		s.reserved = false
		ch.reserved--
		ws = ch.waiters.drain()
	}
	old := ch.waiters.unpark(&s.ready)
	ch.mu.Unlock()

	old.Drop()
	rw.Wake()
	wakeAll(ws)
}

// Len returns the number of buffered items.
func (s *Sender[T]) Len() int {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	return s.ch.buf.Length()
}

// Cap returns the channel capacity, or 0 for an unbounded channel.
func (s *Sender[T]) Cap() int { return s.ch.capacity }

// IsDisconnected reports whether the receiver has been closed.
func (s *Sender[T]) IsDisconnected() bool {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	return s.ch.rxClosed
}

// PollReady implements [Sink]. It resolves once a slot is free and
// reserves that slot for the next StartSend on s.
func (s *Sender[T]) PollReady(w *Waker) Poll[struct{}] {
	ch := s.ch
	ch.mu.Lock()
	err := s.checkLocked()
	if err == ErrFull {
		old := ch.waiters.park(&s.ready, w)
		ch.mu.Unlock()
		old.Drop()
		return Pending[struct{}]()
	}
	if err == nil && !s.reserved {
		s.reserved = true
		ch.reserved++
	}
	old := ch.waiters.unpark(&s.ready)
	ch.mu.Unlock()

	old.Drop()
	if err != nil {
		return Fail[struct{}](err)
	}
	return Ready(struct{}{})
}

// StartSend implements [Sink]. It behaves like [Sender.TrySend].
func (s *Sender[T]) StartSend(v T) error { return s.TrySend(v) }

// PollFlush implements [Sink]. Buffered items are already visible to the
// receiver, so it resolves immediately.
func (s *Sender[T]) PollFlush(*Waker) Poll[struct{}] { return Ready(struct{}{}) }

// PollClose implements [Sink] by closing the Sender.
func (s *Sender[T]) PollClose(*Waker) Poll[struct{}] {
	s.Close()
	return Ready(struct{}{})
}

// PollNext implements [Stream].
func (r *Receiver[T]) PollNext(w *Waker) Poll[T] {
	ch := r.ch
	ch.mu.Lock()
	if ch.buf.Length() > 0 {
		v, _ := ch.buf.Remove().(T)
		ws := ch.waiters.drain()
		ch.mu.Unlock()
		wakeAll(ws)
		return Ready(v)
	}
	switch {
	case ch.rxClosed:
		ch.mu.Unlock()
		return Fail[T](ErrClosed)
	case ch.senders == 0:
		ch.mu.Unlock()
		return Fail[T](io.EOF)
	}
	old := ch.rxWaker
	if old != nil && old.WillWake(w) {
		ch.mu.Unlock()
		return Pending[T]()
	}
	ch.rxWaker = w.Clone()
	ch.mu.Unlock()

	old.Drop()
	return Pending[T]()
}

// Next returns a task resolving to the next item, or to [io.EOF].
func (r *Receiver[T]) Next() Task[T] { return Next[T](r) }

// TryRecv takes the next item without suspending. It fails with
// [ErrEmpty] when nothing is buffered and with [io.EOF] once the stream
// has ended.
func (r *Receiver[T]) TryRecv() (T, error) {
	ch := r.ch
	ch.mu.Lock()
	var zero T
	if ch.buf.Length() == 0 {
		defer ch.mu.Unlock()
		switch {
		case ch.rxClosed:
			return zero, ErrClosed
		case ch.senders == 0:
			return zero, io.EOF
		}
		return zero, ErrEmpty
	}
	v, _ := ch.buf.Remove().(T)
	ws := ch.waiters.drain()
	ch.mu.Unlock()
	wakeAll(ws)
	return v, nil
}

// Len returns the number of buffered items.
func (r *Receiver[T]) Len() int {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	return r.ch.buf.Length()
}

// Close drops the receiver and discards buffered items. Pending and
// future sends fail with [ErrDisconnected].
func (r *Receiver[T]) Close() {
	ch := r.ch
	ch.mu.Lock()
	if ch.rxClosed {
		ch.mu.Unlock()
		return
	}
	ch.rxClosed = true
	for ch.buf.Length() > 0 {
		ch.buf.Remove()
	}
	rw := ch.rxWaker
	ch.rxWaker = nil
	ws := ch.waiters.drain()
	ch.mu.Unlock()

	rw.Drop()
	wakeAll(ws)
}
