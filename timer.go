package pollen

import (
	"sync"
	"time"
)

type sleepTask struct {
	until time.Time

	mu    sync.Mutex
	timer *time.Timer
	fired bool
	waker *Waker
}

// Sleep returns a task that resolves once d has elapsed, measured from the
// call to Sleep. Closing the task stops its timer.
func Sleep(d time.Duration) Task[struct{}] {
	return &sleepTask{until: time.Now().Add(d)}
}

func (s *sleepTask) Poll(w *Waker) Poll[struct{}] {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return Ready(struct{}{})
	}
	if s.timer == nil {
		d := time.Until(s.until)
		if d <= 0 {
			s.fired = true
			s.mu.Unlock()
			return Ready(struct{}{})
		}
		s.timer = time.AfterFunc(d, s.fire)
	}
	old := s.waker
	if old != nil && old.WillWake(w) {
		s.mu.Unlock()
		return Pending[struct{}]()
	}
	s.waker = w.Clone()
	s.mu.Unlock()

	old.Drop()
	return Pending[struct{}]()
}

func (s *sleepTask) fire() {
	s.mu.Lock()
	s.fired = true
	w := s.waker
	s.waker = nil
	s.mu.Unlock()
	w.Wake()
}

func (s *sleepTask) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	w := s.waker
	s.waker = nil
	s.mu.Unlock()
	w.Drop()
}

type timeoutTask[T any] struct {
	t     Task[T]
	sleep Task[struct{}]
	done  bool
	out   Poll[T]
}

// Timeout resolves to t's outcome, or to [ErrTimeout] if d elapses first.
// On timeout t is closed.
func Timeout[T any](t Task[T], d time.Duration) Task[T] {
	return &timeoutTask[T]{t: t, sleep: Sleep(d)}
}

func (t *timeoutTask[T]) Poll(w *Waker) Poll[T] {
	if t.done {
		return t.out
	}
	if p := t.t.Poll(w); p.IsReady() {
		Drop(t.sleep)
		t.done, t.out = true, p
		return p
	}
	if t.sleep.Poll(w).IsPending() {
		return Pending[T]()
	}
	Drop(t.t)
	t.done, t.out = true, Fail[T](ErrTimeout)
	return t.out
}

func (t *timeoutTask[T]) Close() {
	if !t.done {
		Drop(t.t)
		Drop(t.sleep)
	}
}
