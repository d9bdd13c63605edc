package pollen

import "sync"

type oneshotState uint8

const (
	oneshotEmpty oneshotState = iota
	oneshotSent
	oneshotCancelled
)

type oneshot[T any] struct {
	mu       sync.Mutex
	state    oneshotState
	value    T
	txDone   bool
	rxClosed bool
	rxWaker  *Waker
	txWaker  *Waker
}

// OneshotSender is the sending half of a one-shot channel.
type OneshotSender[T any] struct {
	ch *oneshot[T]
}

// OneshotReceiver is the receiving half of a one-shot channel. It is a
// [Task] resolving to the sent value, or to [ErrCancelled] when the sender
// is closed without sending. Once resolved, every later poll returns the
// same resolution.
type OneshotReceiver[T any] struct {
	ch *oneshot[T]
}

// Oneshot returns a connected sender and receiver that carry exactly one value.
func Oneshot[T any]() (*OneshotSender[T], *OneshotReceiver[T]) {
	ch := &oneshot[T]{}
	return &OneshotSender[T]{ch: ch}, &OneshotReceiver[T]{ch: ch}
}

// Send delivers v and consumes the sender. When the receiver is already
// closed, or the sender was used before, Send returns a [*SendError]
// holding v with reason [ErrDisconnected] or [ErrClosed].
func (s *OneshotSender[T]) Send(v T) error {
	ch := s.ch
	ch.mu.Lock()
	if ch.txDone {
		ch.mu.Unlock()
		return sendError(v, ErrClosed)
	}
	ch.txDone = true
	if ch.rxClosed {
		ch.mu.Unlock()
		return sendError(v, ErrDisconnected)
	}
	ch.value = v
	ch.state = oneshotSent
	rw, tw := ch.takeWakersLocked()
	ch.mu.Unlock()

	rw.Wake()
	tw.Drop()
	return nil
}

// Close drops the sender. If nothing was sent the receiver resolves to
// [ErrCancelled]. Close after Send is a no-op.
func (s *OneshotSender[T]) Close() {
	ch := s.ch
	ch.mu.Lock()
	if ch.txDone {
		ch.mu.Unlock()
		return
	}
	ch.txDone = true
	ch.state = oneshotCancelled
	rw, tw := ch.takeWakersLocked()
	ch.mu.Unlock()

	rw.Wake()
	tw.Drop()
}

// IsCancelled reports whether the receiver has been closed.
func (s *OneshotSender[T]) IsCancelled() bool {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	return s.ch.rxClosed
}

// PollCancelled resolves once the receiver is closed. A producer can race
// it against its own work to stop early when nobody is listening.
func (s *OneshotSender[T]) PollCancelled(w *Waker) Poll[struct{}] {
	ch := s.ch
	ch.mu.Lock()
	if ch.rxClosed {
		ch.mu.Unlock()
		return Ready(struct{}{})
	}
	if ch.txDone {
		ch.mu.Unlock()
		return Fail[struct{}](ErrClosed)
	}
	old := ch.txWaker
	if old != nil && old.WillWake(w) {
		ch.mu.Unlock()
		return Pending[struct{}]()
	}
	ch.txWaker = w.Clone()
	ch.mu.Unlock()

	old.Drop()
	return Pending[struct{}]()
}

// Cancelled returns a task wrapping [OneshotSender.PollCancelled].
func (s *OneshotSender[T]) Cancelled() Task[struct{}] {
	return TaskFunc[struct{}](s.PollCancelled)
}

// Poll implements [Task].
func (r *OneshotReceiver[T]) Poll(w *Waker) Poll[T] {
	ch := r.ch
	ch.mu.Lock()
	if p, ok := ch.resolutionLocked(); ok {
		ch.mu.Unlock()
		return p
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

// TryRecv returns the sent value without suspending. It fails with
// [ErrEmpty] while nothing has been sent yet.
func (r *OneshotReceiver[T]) TryRecv() (T, error) {
	r.ch.mu.Lock()
	defer r.ch.mu.Unlock()
	if p, ok := r.ch.resolutionLocked(); ok {
		return p.Result()
	}
	var zero T
	return zero, ErrEmpty
}

// Close drops the receiver. A later Send fails with [ErrDisconnected].
func (r *OneshotReceiver[T]) Close() {
	ch := r.ch
	ch.mu.Lock()
	if ch.rxClosed {
		ch.mu.Unlock()
		return
	}
	ch.rxClosed = true
	rw, tw := ch.takeWakersLocked()
	ch.mu.Unlock()

	rw.Drop()
	tw.Wake()
}

func (ch *oneshot[T]) resolutionLocked() (Poll[T], bool) {
	switch {
	case ch.state == oneshotSent:
		return Ready(ch.value), true
	case ch.state == oneshotCancelled:
		return Fail[T](ErrCancelled), true
	case ch.rxClosed:
		return Fail[T](ErrClosed), true
	}
	return Poll[T]{}, false
}

func (ch *oneshot[T]) takeWakersLocked() (rx, tx *Waker) {
	rx, tx = ch.rxWaker, ch.txWaker
	ch.rxWaker, ch.txWaker = nil, nil
	return rx, tx
}
