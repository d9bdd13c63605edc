package pollen

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
)

// ErrPoolClosed resolves [Offload] tasks submitted to a closed pool.
var ErrPoolClosed = errors.New("pollen: pool is closed")

// BlockingPool runs blocking functions on a fixed number of worker
// goroutines fed by a bounded queue. Tasks created by [Offload] suspend
// while the queue is full instead of blocking their executor.
type BlockingPool struct {
	jobs    chan func()
	wg      *conc.WaitGroup
	done    chan struct{}
	workers int

	mu      sync.Mutex // guards closed, waiters and sends on jobs
	closed  bool
	waiters waitList

	// Observability counters.
	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64
}

// PoolStats provides a point-in-time snapshot of pool activity.
type PoolStats struct {
	Submitted  int64 // jobs accepted
	Completed  int64 // jobs finished (success + error)
	Errored    int64 // jobs that returned an error or panicked
	InFlight   int64 // jobs currently executing
	QueueDepth int   // jobs waiting in the queue
	Waiting    int   // tasks parked on a full queue
	Workers    int   // worker count (fixed at creation)
}

// PoolOption configures a [BlockingPool].
type PoolOption func(*poolConfig)

type poolConfig struct {
	queueSize       int
	onMetrics       func(PoolStats)
	metricsInterval time.Duration
}

// WithQueueSize sets the job queue buffer size. Default is n * 2.
func WithQueueSize(size int) PoolOption {
	return func(c *poolConfig) {
		if size < 0 {
			panic("pollen: WithQueueSize requires non-negative size")
		}
		c.queueSize = size
	}
}

// WithPoolMetrics registers a periodic pool metrics callback that fires
// every interval until the pool is closed.
//
// Panics if interval <= 0 or fn is nil.
func WithPoolMetrics(interval time.Duration, fn func(PoolStats)) PoolOption {
	if interval <= 0 {
		panic("pollen: WithPoolMetrics requires interval > 0")
	}
	if fn == nil {
		panic("pollen: WithPoolMetrics requires non-nil callback")
	}
	return func(c *poolConfig) {
		c.onMetrics = fn
		c.metricsInterval = interval
	}
}

// NewBlockingPool creates a pool with n worker goroutines.
// Workers start immediately and run jobs until [BlockingPool.Close].
// Panics if n <= 0.
func NewBlockingPool(n int, opts ...PoolOption) *BlockingPool {
	if n <= 0 {
		panic("pollen: NewBlockingPool requires n > 0")
	}

	cfg := poolConfig{queueSize: n * 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &BlockingPool{
		jobs:    make(chan func(), cfg.queueSize),
		wg:      conc.NewWaitGroup(),
		done:    make(chan struct{}),
		workers: n,
		waiters: newWaitList(),
	}
	for range n {
		p.wg.Go(p.worker)
	}

	if cfg.onMetrics != nil {
		go func() {
			ticker := time.NewTicker(cfg.metricsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					cfg.onMetrics(p.Stats())
				case <-p.done:
					return
				}
			}
		}()
	}

	return p
}

func (p *BlockingPool) worker() {
	for job := range p.jobs {
		// A queue slot just freed up.
		p.mu.Lock()
		ws := p.waiters.drain()
		p.mu.Unlock()
		wakeAll(ws)

		p.inFlight.Add(1)
		job()
		p.inFlight.Add(-1)
		p.completed.Add(1)
	}
}

// submit enqueues job, or parks w in *slot when the queue is full.
func (p *BlockingPool) submit(job func(), slot **parked, w *Waker) (queued bool, err error) {
	p.mu.Lock()
	if p.closed {
		old := p.waiters.unpark(slot)
		p.mu.Unlock()
		old.Drop()
		return false, ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		old := p.waiters.unpark(slot)
		p.mu.Unlock()
		old.Drop()
		p.submitted.Add(1)
		return true, nil
	default:
		old := p.waiters.park(slot, w)
		p.mu.Unlock()
		old.Drop()
		return false, nil
	}
}

// Stats returns a point-in-time snapshot of pool activity.
// Safe to call concurrently.
func (p *BlockingPool) Stats() PoolStats {
	p.mu.Lock()
	waiting := p.waiters.len()
	p.mu.Unlock()
	return PoolStats{
		Submitted:  p.submitted.Load(),
		Completed:  p.completed.Load(),
		Errored:    p.errored.Load(),
		InFlight:   p.inFlight.Load(),
		QueueDepth: len(p.jobs),
		Waiting:    waiting,
		Workers:    p.workers,
	}
}

// Close stops accepting jobs, lets queued jobs finish and waits for the
// workers to exit. Parked [Offload] tasks resolve with [ErrPoolClosed].
// Safe to call multiple times.
func (p *BlockingPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.jobs)
	close(p.done)
	ws := p.waiters.drain()
	p.mu.Unlock()

	wakeAll(ws)
	p.wg.Wait()
}

// Offload returns a task that runs fn on one of p's workers and resolves
// to its result. The job is queued on first poll; while the queue is full
// the task stays pending. Closing the task before the job runs discards
// the result but does not unqueue the job.
func Offload[T any](p *BlockingPool, fn func() (T, error)) Task[T] {
	if fn == nil {
		panic("pollen: Offload requires a non-nil function")
	}
	return &offloadTask[T]{pool: p, fn: fn}
}

type offloadTask[T any] struct {
	pool *BlockingPool
	fn   func() (T, error)
	slot *parked
	rx   *OneshotReceiver[Result[T]]
}

func (t *offloadTask[T]) Poll(w *Waker) Poll[T] {
	if t.rx == nil {
		tx, rx := Oneshot[Result[T]]()
		fn, pool := t.fn, t.pool
		job := func() {
			if res := runBlocking(tx, fn); res.Err != nil {
				pool.errored.Add(1)
			}
		}
		queued, err := t.pool.submit(job, &t.slot, w)
		if err != nil {
			return Fail[T](err)
		}
		if !queued {
			return Pending[T]()
		}
		t.rx = rx
	}
	p := t.rx.Poll(w)
	if p.IsPending() {
		return Pending[T]()
	}
	r, err := p.Result()
	if err != nil {
		return Fail[T](err)
	}
	return Resolve(r.Value, r.Err)
}

func (t *offloadTask[T]) Close() {
	if t.rx != nil {
		t.rx.Close()
		return
	}
	t.pool.mu.Lock()
	old := t.pool.waiters.unpark(&t.slot)
	t.pool.mu.Unlock()
	old.Drop()
}
