package pollen

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc"
)

// WorkerExecutor polls tasks on a fixed set of worker goroutines sharing
// one ready queue. A task is polled by at most one worker at a time, but
// successive polls may land on different workers.
//
// Tasks that stall while every worker is idle are resolved with
// [ErrStalled].
type WorkerExecutor struct {
	sched    *scheduler
	wg       *conc.WaitGroup
	workers  int
	stopping bool // guarded by sched.mu

	closeOnce sync.Once
	closeErr  error
	closePE   *PanicError
}

// NewWorkerExecutor starts n worker goroutines. They run until
// [WorkerExecutor.Close] or [WorkerExecutor.Shutdown].
// Panics if n <= 0.
func NewWorkerExecutor(n int, opts ...Option) *WorkerExecutor {
	if n <= 0 {
		panic("pollen: NewWorkerExecutor requires n > 0")
	}
	x := &WorkerExecutor{
		sched:   newScheduler(newConfig(opts)),
		wg:      conc.NewWaitGroup(),
		workers: n,
	}
	x.sched.collect = true
	for range n {
		x.wg.Go(x.worker)
	}
	return x
}

func (x *WorkerExecutor) spawn(name string, t erasedTask) TaskInfo {
	return x.sched.spawn(name, t)
}

func (x *WorkerExecutor) worker() {
	s := x.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		switch {
		case x.stopping:
			// Queued entries are failed by Shutdown once every worker is out.
			return
		case s.ready.Length() > 0:
			s.runLocked(s.popLocked())
		case s.stalledLocked():
			s.failAllLocked(ErrStalled)
		default:
			s.cond.Wait()
		}
	}
}

// Len returns the number of spawned tasks that have not resolved.
func (x *WorkerExecutor) Len() int { return x.sched.liveCount() }

// Stats returns a point-in-time snapshot of executor activity.
func (x *WorkerExecutor) Stats() Stats { return x.sched.stats(x.workers) }

// Close waits for every live task to resolve, then stops the workers.
// It returns the failures of all tasks joined via [errors.Join], each
// wrapped in a [*TaskError]. A task panic is re-raised here unless the
// executor was built with [WithPanicAsError].
//
// Safe to call multiple times; subsequent calls return the same result.
func (x *WorkerExecutor) Close() error {
	return x.Shutdown(context.Background())
}

// Shutdown is like Close but stops waiting when ctx ends. Tasks still live
// at that point are resolved with [ErrExecutorClosed]. Tasks spawned after
// shutdown resolve with ErrExecutorClosed immediately.
func (x *WorkerExecutor) Shutdown(ctx context.Context) error {
	x.closeOnce.Do(func() {
		s := x.sched
		stop := context.AfterFunc(ctx, s.broadcast)
		defer stop()

		s.mu.Lock()
		for len(s.live) > 0 && ctx.Err() == nil {
			s.cond.Wait()
		}
		s.closed = true
		x.stopping = true
		s.cond.Broadcast()
		s.mu.Unlock()

		x.wg.Wait()

		s.mu.Lock()
		s.failAllLocked(ErrExecutorClosed)
		x.closeErr = errors.Join(s.errs...)
		if len(s.panics) > 0 {
			x.closePE = s.panics[0]
		}
		s.mu.Unlock()
	})
	if x.closePE != nil {
		panic(x.closePE)
	}
	return x.closeErr
}
