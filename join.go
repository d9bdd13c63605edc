package pollen

import "errors"

// slots tracks the resolution of a fixed set of tasks.
type slots[T any] struct {
	tasks []Task[T]
	out   []Poll[T]
	left  int
}

func newSlots[T any](tasks []Task[T]) slots[T] {
	return slots[T]{tasks: tasks, out: make([]Poll[T], len(tasks)), left: len(tasks)}
}

// pollAll polls every unresolved task once. It stops early and returns the
// index of the first newly resolved task for which stop reports true.
func (s *slots[T]) pollAll(w *Waker, stop func(Poll[T]) bool) int {
	for i, t := range s.tasks {
		if t == nil {
			continue
		}
		p := t.Poll(w)
		if p.IsPending() {
			continue
		}
		s.out[i] = p
		s.tasks[i] = nil
		s.left--
		if stop != nil && stop(p) {
			return i
		}
	}
	return -1
}

func (s *slots[T]) closeRest() {
	for i, t := range s.tasks {
		if t != nil {
			Drop(t)
			s.tasks[i] = nil
		}
	}
}

type joinAll[T any] struct {
	slots[T]
	failFast bool
	done     bool
	res      Poll[[]T]
}

// JoinAll returns a task that waits for every task and resolves to their
// values in argument order. If any task fails, it resolves to all the
// failures joined via [errors.Join].
func JoinAll[T any](tasks ...Task[T]) Task[[]T] {
	return &joinAll[T]{slots: newSlots(tasks)}
}

// TryJoinAll is like [JoinAll] but fails as soon as one task fails,
// closing the others.
func TryJoinAll[T any](tasks ...Task[T]) Task[[]T] {
	return &joinAll[T]{slots: newSlots(tasks), failFast: true}
}

func (j *joinAll[T]) Poll(w *Waker) Poll[[]T] {
	if j.done {
		return j.res
	}
	var stop func(Poll[T]) bool
	if j.failFast {
		stop = func(p Poll[T]) bool { return p.Err() != nil }
	}
	if i := j.pollAll(w, stop); i >= 0 {
		j.closeRest()
		j.done, j.res = true, Fail[[]T](j.out[i].Err())
		return j.res
	}
	if j.left > 0 {
		return Pending[[]T]()
	}

	vals := make([]T, len(j.out))
	var errs []error
	for i, p := range j.out {
		vals[i] = p.Value()
		if p.Err() != nil {
			errs = append(errs, p.Err())
		}
	}
	j.done = true
	if err := errors.Join(errs...); err != nil {
		j.res = Fail[[]T](err)
	} else {
		j.res = Ready(vals)
	}
	return j.res
}

func (j *joinAll[T]) Close() { j.closeRest() }

type selectTask[T any] struct {
	slots[T]
	firstOK bool
	done    bool
	res     Poll[T]
}

// Select resolves to the outcome of whichever task resolves first, value
// or error, and closes the others. Ties go to the earlier argument.
// Select panics if no tasks are given.
func Select[T any](tasks ...Task[T]) Task[T] {
	if len(tasks) == 0 {
		panic("pollen: Select requires at least one task")
	}
	return &selectTask[T]{slots: newSlots(tasks)}
}

// Race resolves to the first successful value and closes the others. If
// every task fails, it resolves to their errors joined.
// Race panics if no tasks are given.
func Race[T any](tasks ...Task[T]) Task[T] {
	if len(tasks) == 0 {
		panic("pollen: Race requires at least one task")
	}
	return &selectTask[T]{slots: newSlots(tasks), firstOK: true}
}

func (s *selectTask[T]) Poll(w *Waker) Poll[T] {
	if s.done {
		return s.res
	}
	i := s.pollAll(w, func(p Poll[T]) bool { return !s.firstOK || p.Err() == nil })
	switch {
	case i >= 0:
		s.res = s.out[i]
	case s.left == 0:
		errs := make([]error, 0, len(s.out))
		for _, p := range s.out {
			errs = append(errs, p.Err())
		}
		s.res = Fail[T](errors.Join(errs...))
	default:
		return Pending[T]()
	}
	s.closeRest()
	s.done = true
	return s.res
}

func (s *selectTask[T]) Close() { s.closeRest() }
