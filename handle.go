package pollen

import "context"

// Spawner accepts tasks for execution. It is implemented by [*Executor]
// and [*WorkerExecutor]; use [Spawn] to submit work.
type Spawner interface {
	spawn(name string, t erasedTask) TaskInfo
}

type outcome[T any] struct {
	val T
	err error
}

// spawned adapts a Task[T] to the scheduler and publishes its result on
// a one-shot channel.
type spawned[T any] struct {
	task Task[T]
	tx   *OneshotSender[outcome[T]]
}

func (s *spawned[T]) poll(w *Waker) (bool, error) {
	p := s.task.Poll(w)
	if p.IsPending() {
		return false, nil
	}
	v, err := p.Result()
	// A closed handle means nobody is waiting; the result is discarded.
	_ = s.tx.Send(outcome[T]{val: v, err: err})
	return true, err
}

func (s *spawned[T]) fail(err error) {
	_ = s.tx.Send(outcome[T]{err: err})
	Drop(s.task)
}

// JoinHandle is a [Task] resolving to the outcome of a spawned task.
// Closing the handle detaches the task; it keeps running.
type JoinHandle[T any] struct {
	info TaskInfo
	rx   *OneshotReceiver[outcome[T]]
}

// Spawn submits t to sp under the given name and returns a handle to its
// result. On a closed executor the handle resolves to [ErrExecutorClosed].
func Spawn[T any](sp Spawner, name string, t Task[T]) *JoinHandle[T] {
	if t == nil {
		panic("pollen: Spawn requires a non-nil task")
	}
	tx, rx := Oneshot[outcome[T]]()
	info := sp.spawn(name, &spawned[T]{task: t, tx: tx})
	return &JoinHandle[T]{info: info, rx: rx}
}

// Info returns the name and ID the executor assigned to the task.
func (h *JoinHandle[T]) Info() TaskInfo { return h.info }

// Poll implements [Task].
func (h *JoinHandle[T]) Poll(w *Waker) Poll[T] {
	p := h.rx.Poll(w)
	if p.IsPending() {
		return Pending[T]()
	}
	o, err := p.Result()
	if err != nil {
		return Fail[T](err)
	}
	return Resolve(o.val, o.err)
}

// Done reports whether the task has resolved.
func (h *JoinHandle[T]) Done() bool {
	_, err := h.rx.TryRecv()
	return err != ErrEmpty
}

// TryResult returns the outcome without blocking. It fails with [ErrEmpty]
// while the task is still running.
func (h *JoinHandle[T]) TryResult() (T, error) {
	o, err := h.rx.TryRecv()
	if err != nil {
		var zero T
		return zero, err
	}
	return o.val, o.err
}

// Wait blocks the calling goroutine until the task resolves or ctx ends.
// It must not be called from inside a task; await the handle instead.
func (h *JoinHandle[T]) Wait(ctx context.Context) (T, error) {
	if h.Done() {
		return h.TryResult()
	}
	return BlockOn[T](ctx, h)
}

// Close detaches the task. Its result will be discarded.
func (h *JoinHandle[T]) Close() { h.rx.Close() }
