// Package pollen provides poll-driven tasks, the executors that drive them,
// and the channels, streams and sinks they communicate through.
//
// # Tasks and Wakers
//
// A [Task] is a suspendable computation with a single method, Poll. Each
// call either resolves the task with [Ready] or [Fail], or returns
// [Pending] after arranging for the supplied [Waker] to be woken once
// progress is possible:
//
//	func (t *ticket) Poll(w *pollen.Waker) pollen.Poll[int] {
//	    if n, ok := t.counter.take(); ok {
//	        return pollen.Ready(n)
//	    }
//	    t.counter.notify(w.Clone())
//	    return pollen.Pending[int]()
//	}
//
// A component that keeps a waker beyond one Poll call stores w.Clone() and
// later calls Wake or Drop on that clone. Executors count outstanding
// clones: a task that is pending with no clone outstanding can never be
// woken, and is resolved with [ErrStalled] instead of hanging forever.
//
// # Executors
//
// [Executor] polls tasks on the goroutine that calls [Run] or
// [Executor.RunUntilIdle]; [BlockOn] runs a single task on a fresh one.
// [WorkerExecutor] polls on a fixed set of worker goroutines. Both accept
// work through [Spawn], which returns a [JoinHandle] that is itself a task.
//
// Wakes are coalesced: a task sits in the ready queue at most once, and is
// never polled by two goroutines at the same time, even when it is woken
// while being polled.
//
// # Channels
//
//   - [Oneshot]: carries exactly one value, or [ErrCancelled] when the
//     sender is closed first. The receiver is a task whose resolution is
//     stable across repeated polls.
//   - [Bounded]: a multi-producer channel with a fixed buffer.
//     [Sender.TrySend] fails fast with [ErrFull]; [Sender.Send] suspends
//     until a slot frees. The [Receiver] is a [Stream] that ends with
//     [io.EOF] once every sender is closed and the buffer is drained.
//     [Unbounded] is the same channel without a limit.
//
// [NewBiLock] splits one value between two owners; [BiLock.Lock] suspends
// the task while the other half holds it.
//
// # Streams and Sinks
//
// [Stream] and [Sink] are the multi-value counterparts of Task. The
// [github.com/baxromumarov/pollen/stream] subpackage provides sources,
// adapters, buffering and fan-out on top of them.
//
// # Combinators
//
// [Map], [MapErr], [Recover], [Then], [AndThen], [OrElse] and [CatchPanic]
// transform one task. [JoinAll], [TryJoinAll], [Select] and [Race] combine
// several. [Sleep] and [Timeout] add time.
//
// # Blocking Work
//
// Blocking calls must not run inside Poll. [SpawnBlocking] runs a function
// on its own goroutine and hands the result back through a one-shot
// channel; [Offload] does the same on a [BlockingPool] with a bounded
// queue. [Semaphore] limits how many tasks hold a permit at once.
//
// # Panic Recovery
//
// A panic while polling a task is captured with its stack trace and
// resolves the task's [JoinHandle] with a [*PanicError]. It is then
// re-raised from [Run], [Executor.RunUntilIdle] or [WorkerExecutor.Close]
// unless the executor was built with [WithPanicAsError].
//
// # Observability
//
// [WithOnEvent] receives a [TaskEvent] for every task state change, and
// [Executor.Stats], [WorkerExecutor.Stats] and [BlockingPool.Stats] return
// counter snapshots.
package pollen
