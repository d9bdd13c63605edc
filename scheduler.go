package pollen

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"
)

type taskState uint8

const (
	stateIdle taskState = iota
	stateQueued
	stateRunning
	stateRunningWoken
	stateDone
)

// erasedTask is a spawned task with its result type hidden. poll reports
// completion; fail abandons the task and resolves its handle with err.
type erasedTask interface {
	poll(w *Waker) (done bool, err error)
	fail(err error)
}

// entry is the scheduler's record for one spawned task. state, armed and
// polls are guarded by sched.mu.
type entry struct {
	id    uint64
	name  string
	sched *scheduler
	task  erasedTask
	born  time.Time
	waker *Waker

	state taskState
	armed int
	polls int
}

func (e *entry) info() TaskInfo { return TaskInfo{Name: e.name, ID: e.id} }

func (e *entry) wake(release bool) { e.sched.wake(e, release) }
func (e *entry) arm()              { e.sched.arm(e) }
func (e *entry) release()          { e.sched.release(e) }

// counters are written from every worker, so each hot one gets its own
// cache line.
type counters struct {
	spawned   atomic.Int64
	_         cpu.CacheLinePad
	polls     atomic.Int64
	_         cpu.CacheLinePad
	wakes     atomic.Int64
	_         cpu.CacheLinePad
	completed atomic.Int64
	errored   atomic.Int64
	panicked  atomic.Int64
	stalled   atomic.Int64
}

// Stats is a point-in-time snapshot of executor activity.
type Stats struct {
	Spawned   int64 // tasks accepted
	Completed int64 // tasks resolved, with any outcome
	Errored   int64 // tasks resolved with an error, panics included
	Panicked  int64 // tasks whose poll panicked
	Stalled   int64 // tasks failed with ErrStalled
	Polls     int64 // total Poll calls
	Wakes     int64 // wakes that queued a task
	Live      int   // tasks not yet resolved
	Ready     int   // tasks waiting in the ready queue
	Workers   int   // worker goroutines, 1 for Executor
}

// scheduler is the ready queue and task table shared by both executors.
// Every wake goes through it: a task is queued at most once and polled by
// at most one goroutine at a time.
type scheduler struct {
	mu       sync.Mutex
	cond     *sync.Cond
	ready    *queue.Queue
	live     map[uint64]*entry
	armed    int
	running  int
	closed   bool
	collect  bool
	errs     []error
	panics   []*PanicError
	cfg      config
	nextID   atomic.Uint64
	counters counters
}

func newScheduler(cfg config) *scheduler {
	s := &scheduler{
		ready: queue.New(),
		live:  make(map[uint64]*entry),
		cfg:   cfg,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *scheduler) spawn(name string, t erasedTask) TaskInfo {
	e := &entry{
		id:    s.nextID.Add(1),
		name:  name,
		sched: s,
		task:  t,
		born:  time.Now(),
		state: stateQueued,
	}
	e.waker = &Waker{target: e}

	s.counters.spawned.Add(1)
	s.emit(TaskEvent{Kind: EventSpawned, Task: e.info()})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.abandon(e, ErrExecutorClosed)
		return e.info()
	}
	s.live[e.id] = e
	s.ready.Add(e)
	s.cond.Broadcast()
	s.mu.Unlock()
	return e.info()
}

func (s *scheduler) wake(e *entry, release bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if release && e.state != stateDone && e.armed > 0 {
		e.armed--
		s.armed--
	}
	switch e.state {
	case stateIdle:
		e.state = stateQueued
		s.ready.Add(e)
		s.counters.wakes.Add(1)
		s.cond.Broadcast()
	case stateRunning:
		e.state = stateRunningWoken
	}
}

func (s *scheduler) arm(e *entry) {
	s.mu.Lock()
	if e.state != stateDone {
		e.armed++
		s.armed++
	}
	s.mu.Unlock()
}

func (s *scheduler) release(e *entry) {
	s.mu.Lock()
	if e.state != stateDone && e.armed > 0 {
		e.armed--
		s.armed--
		if s.armed == 0 {
			s.cond.Broadcast()
		}
	}
	s.mu.Unlock()
}

func (s *scheduler) broadcast() {
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *scheduler) popLocked() *entry {
	e, _ := s.ready.Remove().(*entry)
	return e
}

// stalledLocked reports whether live tasks exist that nothing can ever
// make ready again.
func (s *scheduler) stalledLocked() bool {
	return s.ready.Length() == 0 && s.running == 0 && s.armed == 0 && len(s.live) > 0
}

// runLocked polls one queued entry. It releases s.mu for the duration of
// the poll and returns with it held. The returned *PanicError is non-nil
// if the poll panicked.
func (s *scheduler) runLocked(e *entry) *PanicError {
	e.state = stateRunning
	e.polls++
	polls := e.polls
	s.running++
	s.mu.Unlock()

	s.counters.polls.Add(1)
	var (
		done bool
		err  error
	)
	pe := catch(func() { done, err = e.task.poll(e.waker) })
	if pe != nil {
		_ = catch(func() { e.task.fail(pe) })
		done, err = true, pe
	}
	if done {
		s.completed(e, err, polls)
	}

	s.mu.Lock()
	s.running--
	switch {
	case done:
		s.finishLocked(e)
		s.recordLocked(e, err)
	case e.state == stateRunningWoken:
		e.state = stateQueued
		s.ready.Add(e)
	default:
		e.state = stateIdle
	}
	s.cond.Broadcast()
	return pe
}

func (s *scheduler) finishLocked(e *entry) {
	e.state = stateDone
	s.armed -= e.armed
	e.armed = 0
	delete(s.live, e.id)
}

func (s *scheduler) recordLocked(e *entry, err error) {
	if err == nil {
		return
	}
	var pe *PanicError
	if errors.As(err, &pe) && !s.cfg.panicAsErr {
		s.panics = append(s.panics, pe)
		return
	}
	if !s.collect || (s.cfg.maxErrors > 0 && len(s.errs) >= s.cfg.maxErrors) {
		return
	}
	s.errs = append(s.errs, &TaskError{Task: e.info(), Err: err})
}

// failAllLocked resolves every live task with err. Callers make sure no
// task is running. s.mu is released while the tasks are failed.
func (s *scheduler) failAllLocked(err error) int {
	victims := make([]*entry, 0, len(s.live))
	for _, e := range s.live {
		victims = append(victims, e)
		s.finishLocked(e)
		s.recordLocked(e, err)
	}
	s.ready = queue.New()
	s.mu.Unlock()

	slices.SortFunc(victims, func(a, b *entry) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	for _, e := range victims {
		s.abandon(e, err)
	}

	s.mu.Lock()
	s.cond.Broadcast()
	return len(victims)
}

func (s *scheduler) abandon(e *entry, err error) {
	_ = catch(func() { e.task.fail(err) })
	if errors.Is(err, ErrStalled) {
		s.counters.stalled.Add(1)
	}
	s.completed(e, err, e.polls)
}

func (s *scheduler) completed(e *entry, err error, polls int) {
	s.counters.completed.Add(1)
	if err != nil {
		s.counters.errored.Add(1)
		if errors.As(err, new(*PanicError)) {
			s.counters.panicked.Add(1)
		}
	}
	s.emit(TaskEvent{
		Kind:     completionKind(err),
		Task:     e.info(),
		Err:      err,
		Polls:    polls,
		Duration: time.Since(e.born),
	})
}

func (s *scheduler) emit(ev TaskEvent) {
	if s.cfg.onEvent != nil {
		s.cfg.onEvent(ev)
	}
}

func (s *scheduler) stats(workers int) Stats {
	s.mu.Lock()
	live, ready := len(s.live), s.ready.Length()
	s.mu.Unlock()
	return Stats{
		Spawned:   s.counters.spawned.Load(),
		Completed: s.counters.completed.Load(),
		Errored:   s.counters.errored.Load(),
		Panicked:  s.counters.panicked.Load(),
		Stalled:   s.counters.stalled.Load(),
		Polls:     s.counters.polls.Load(),
		Wakes:     s.counters.wakes.Load(),
		Live:      live,
		Ready:     ready,
		Workers:   workers,
	}
}

func (s *scheduler) liveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}
