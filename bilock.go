package pollen

import (
	"sync"
	"sync/atomic"
)

type biLockState[T any] struct {
	mu      sync.Mutex
	value   T
	locked  bool
	waiters [2]*Waker
}

// BiLock is one half of a lock shared by exactly two owners, typically
// the read and write sides of a split resource. Locking suspends the
// calling task, not its goroutine, while the other half holds the lock.
type BiLock[T any] struct {
	st   *biLockState[T]
	half int
}

// BiLockGuard grants access to the value until Unlock.
type BiLockGuard[T any] struct {
	lock     *BiLock[T]
	unlocked atomic.Bool
}

// NewBiLock returns the two halves of a lock around v.
func NewBiLock[T any](v T) (*BiLock[T], *BiLock[T]) {
	st := &biLockState[T]{value: v}
	return &BiLock[T]{st: st, half: 0}, &BiLock[T]{st: st, half: 1}
}

// PollLock acquires the lock, or parks w until the holder unlocks.
func (l *BiLock[T]) PollLock(w *Waker) Poll[*BiLockGuard[T]] {
	st := l.st
	st.mu.Lock()
	old := st.waiters[l.half]
	if !st.locked {
		st.locked = true
		st.waiters[l.half] = nil
		st.mu.Unlock()

		old.Drop()
		return Ready(&BiLockGuard[T]{lock: l})
	}
	if old != nil && old.WillWake(w) {
		st.mu.Unlock()
		return Pending[*BiLockGuard[T]]()
	}
	st.waiters[l.half] = w.Clone()
	st.mu.Unlock()

	old.Drop()
	return Pending[*BiLockGuard[T]]()
}

// Lock returns a task resolving to a guard once the lock is held.
func (l *BiLock[T]) Lock() Task[*BiLockGuard[T]] {
	return &lockTask[T]{l: l}
}

// Reunite recombines both halves and returns the protected value.
// Panics if the lock is held.
func (l *BiLock[T]) Reunite(other *BiLock[T]) (T, error) {
	var zero T
	if other == nil || other.st != l.st || other.half == l.half {
		return zero, ErrNotPaired
	}
	st := l.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.locked {
		panic("pollen: BiLock.Reunite while locked")
	}
	return st.value, nil
}

func (l *BiLock[T]) cancel() {
	st := l.st
	st.mu.Lock()
	old := st.waiters[l.half]
	st.waiters[l.half] = nil
	st.mu.Unlock()
	old.Drop()
}

type lockTask[T any] struct {
	l    *BiLock[T]
	done bool
}

func (t *lockTask[T]) Poll(w *Waker) Poll[*BiLockGuard[T]] {
	p := t.l.PollLock(w)
	if p.IsReady() {
		t.done = true
	}
	return p
}

// Close stops waiting for the lock. A guard already handed out is not
// affected.
func (t *lockTask[T]) Close() {
	if !t.done {
		t.l.cancel()
	}
}

// Value returns a pointer to the protected value. It must not be used
// after Unlock.
func (g *BiLockGuard[T]) Value() *T { return &g.lock.st.value }

// Unlock releases the lock, wakes a half waiting for it and returns the
// half that held it.
// Panics if called twice.
func (g *BiLockGuard[T]) Unlock() *BiLock[T] {
	if !g.unlocked.CompareAndSwap(false, true) {
		panic("pollen: BiLockGuard unlocked twice")
	}
	st := g.lock.st
	st.mu.Lock()
	st.locked = false
	ws := []*Waker{st.waiters[0], st.waiters[1]}
	st.waiters = [2]*Waker{}
	st.mu.Unlock()

	wakeAll(ws)
	return g.lock
}
