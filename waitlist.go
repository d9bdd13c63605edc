package pollen

import "github.com/eapache/queue"

// parked is one suspended waiter. Both fields are guarded by the lock of
// the structure owning the waitList.
type parked struct {
	waker  *Waker
	queued bool
}

// waitList is a FIFO of parked tasks. It never wakes anything itself:
// methods hand wakers back so callers can fire them after unlocking.
type waitList struct {
	q *queue.Queue
}

func newWaitList() waitList {
	return waitList{q: queue.New()}
}

// park registers w in *slot unless the slot already holds a queued waker
// for the same task. It returns a superseded waker to drop.
func (l *waitList) park(slot **parked, w *Waker) *Waker {
	cur := *slot
	if cur != nil && cur.queued && cur.waker.WillWake(w) {
		return nil
	}
	var old *Waker
	if cur != nil {
		old, cur.waker = cur.waker, nil
	}
	p := &parked{waker: w.Clone(), queued: true}
	l.q.Add(p)
	*slot = p
	return old
}

// unpark abandons *slot and returns its waker to drop.
func (l *waitList) unpark(slot **parked) *Waker {
	cur := *slot
	if cur == nil {
		return nil
	}
	*slot = nil
	w := cur.waker
	cur.waker = nil
	return w
}

// drain empties the list and returns the wakers to fire.
func (l *waitList) drain() []*Waker {
	if l.q.Length() == 0 {
		return nil
	}
	out := make([]*Waker, 0, l.q.Length())
	for l.q.Length() > 0 {
		p, _ := l.q.Remove().(*parked)
		p.queued = false
		if p.waker != nil {
			out = append(out, p.waker)
			p.waker = nil
		}
	}
	return out
}

func (l *waitList) len() int { return l.q.Length() }

func wakeAll(ws []*Waker) {
	for _, w := range ws {
		w.Wake()
	}
}
