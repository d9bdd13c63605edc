package pollen

import "sync/atomic"

// Semaphore bounds how many tasks hold a permit at once. Acquire suspends
// the calling task, not its goroutine, while no permit is free.
type Semaphore struct {
	tx       *Sender[struct{}]
	rx       *Receiver[struct{}]
	acquired atomic.Int64
}

// NewSemaphore creates a semaphore with n permits.
// Panics if n <= 0.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		panic("pollen: NewSemaphore requires n > 0")
	}
	tx, rx := Bounded[struct{}](n)
	return &Semaphore{tx: tx, rx: rx}
}

// Acquire returns a task that resolves once a permit is held.
func (s *Semaphore) Acquire() Task[struct{}] {
	return Map(s.tx.Send(struct{}{}), func(struct{}) struct{} {
		s.acquired.Add(1)
		return struct{}{}
	})
}

// TryAcquire takes a permit without suspending.
// Returns true if acquired, false otherwise.
func (s *Semaphore) TryAcquire() bool {
	if s.tx.TrySend(struct{}{}) != nil {
		return false
	}
	s.acquired.Add(1)
	return true
}

// Release returns a permit and wakes tasks waiting in Acquire.
// Panics if more permits are released than acquired.
func (s *Semaphore) Release() {
	if s.acquired.Add(-1) < 0 {
		s.acquired.Add(1) // undo
		panic("pollen: Semaphore.Release called without matching Acquire")
	}
	_, _ = s.rx.TryRecv()
}

// Available returns the number of free permits.
// The value may be stale in concurrent contexts.
func (s *Semaphore) Available() int {
	return s.tx.Cap() - s.tx.Len()
}
