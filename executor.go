package pollen

import (
	"context"
	"sync/atomic"
)

// Executor drives tasks on the goroutine that calls [Run] or
// [Executor.RunUntilIdle]. Wakes may come from any goroutine; polls happen
// only on the driving goroutine.
type Executor struct {
	sched   *scheduler
	driving atomic.Bool
}

// NewExecutor returns an idle single-threaded executor.
func NewExecutor(opts ...Option) *Executor {
	return &Executor{sched: newScheduler(newConfig(opts))}
}

func (x *Executor) spawn(name string, t erasedTask) TaskInfo {
	return x.sched.spawn(name, t)
}

// Len returns the number of spawned tasks that have not resolved.
func (x *Executor) Len() int { return x.sched.liveCount() }

// Stats returns a point-in-time snapshot of executor activity.
func (x *Executor) Stats() Stats { return x.sched.stats(1) }

// Run spawns t on x and drives x until t resolves, returning its outcome.
// Other tasks spawned on x are polled along the way and stay live if
// unfinished.
//
// Run returns [ErrStalled] when t can never resolve and ctx.Err() when ctx
// ends first. A panic while polling any task is re-raised unless x was
// built with [WithPanicAsError].
func Run[T any](ctx context.Context, x *Executor, t Task[T]) (T, error) {
	h := Spawn(x, "run", t)
	defer h.Close()

	var zero T
	if _, err := x.drive(ctx, h.Done); err != nil {
		return zero, err
	}
	return h.TryResult()
}

// BlockOn runs t to completion on a fresh [Executor].
func BlockOn[T any](ctx context.Context, t Task[T], opts ...Option) (T, error) {
	return Run(ctx, NewExecutor(opts...), t)
}

// RunUntilIdle drives x until every spawned task has resolved. Tasks that
// stall are resolved with [ErrStalled], which RunUntilIdle then returns.
func (x *Executor) RunUntilIdle(ctx context.Context) error {
	stalled, err := x.drive(ctx, func() bool { return x.Len() == 0 })
	if err != nil {
		return err
	}
	if stalled {
		return ErrStalled
	}
	return nil
}

func (x *Executor) drive(ctx context.Context, done func() bool) (stalled bool, err error) {
	if !x.driving.CompareAndSwap(false, true) {
		panic("pollen: Executor is already running")
	}
	defer x.driving.Store(false)

	s := x.sched
	stop := context.AfterFunc(ctx, s.broadcast)
	defer stop()

	// done is checked without s.mu: it may take channel locks, which rank
	// above the scheduler lock.
	for !done() {
		s.mu.Lock()
		switch {
		case ctx.Err() != nil:
			s.mu.Unlock()
			return stalled, ctx.Err()

		case s.ready.Length() > 0:
			pe := s.runLocked(s.popLocked())
			s.mu.Unlock()
			if pe != nil && !s.cfg.panicAsErr {
				panic(pe)
			}

		case s.stalledLocked():
			s.failAllLocked(ErrStalled)
			s.mu.Unlock()
			stalled = true

		case len(s.live) == 0:
			s.mu.Unlock()
			return stalled, nil

		default:
			s.cond.Wait()
			s.mu.Unlock()
		}
	}
	return stalled, nil
}
