package pollen

import "sync/atomic"

// wakeTarget is what a [Waker] reschedules. Executors implement it per
// task; release reports that one outstanding clone has been consumed.
type wakeTarget interface {
	wake(release bool)
	arm()
	release()
}

// Waker is a handle used to request that a suspended task be polled again.
//
// The waker passed to [Task.Poll] is only valid for that call. A
// component that needs to wake the task later must keep w.Clone() and,
// eventually, call Wake or Drop on the clone exactly once. Executors count
// outstanding clones to tell a parked task apart from an abandoned one.
//
// Wake is safe to call from any goroutine, any number of times, including
// after the task has resolved. All methods are safe on a nil *Waker.
type Waker struct {
	target   wakeTarget
	clone    bool
	released atomic.Bool
}

// NewWaker returns a waker that calls fn on every Wake. It is intended for
// driving tasks by hand, in tests or adapters.
func NewWaker(fn func()) *Waker {
	if fn == nil {
		panic("pollen: NewWaker requires a non-nil function")
	}
	return &Waker{target: funcTarget(fn)}
}

// NoopWaker returns a waker whose Wake does nothing.
func NoopWaker() *Waker {
	return &Waker{target: funcTarget(func() {})}
}

// Clone returns a new handle to the same task. The clone counts as an
// outstanding wake until it is woken or dropped.
func (w *Waker) Clone() *Waker {
	if w == nil || w.target == nil {
		return nil
	}
	w.target.arm()
	return &Waker{target: w.target, clone: true}
}

// Wake schedules the task for another poll. The first Wake on a clone also
// consumes it.
func (w *Waker) Wake() {
	if w == nil || w.target == nil {
		return
	}
	w.target.wake(w.clone && w.released.CompareAndSwap(false, true))
}

// Drop consumes a clone without waking the task. It is a no-op for wakers
// that are not clones, and for clones already woken or dropped.
func (w *Waker) Drop() {
	if w == nil || w.target == nil || !w.clone {
		return
	}
	if w.released.CompareAndSwap(false, true) {
		w.target.release()
	}
}

// WillWake reports whether w and other reschedule the same task.
func (w *Waker) WillWake(other *Waker) bool {
	if w == nil || other == nil {
		return w == other
	}
	return sameTarget(w.target, other.target)
}

func sameTarget(a, b wakeTarget) bool {
	if ea, ok := a.(*entry); ok {
		eb, ok := b.(*entry)
		return ok && ea == eb
	}
	return false
}

type funcTarget func()

func (f funcTarget) wake(bool) { f() }
func (funcTarget) arm()        {}
func (funcTarget) release()    {}
