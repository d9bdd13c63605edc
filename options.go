package pollen

type config struct {
	panicAsErr bool
	maxErrors  int
	onEvent    func(TaskEvent)
}

// Option configures an [Executor] or [WorkerExecutor].
type Option func(*config)

func newConfig(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPanicAsError reports panics raised inside tasks as [*PanicError]
// values instead of re-raising them from the driving call ([Run],
// [Executor.RunUntilIdle], [WorkerExecutor.Close]). The task's
// [JoinHandle] receives the *PanicError either way.
func WithPanicAsError() Option {
	return func(c *config) {
		c.panicAsErr = true
	}
}

// WithMaxErrors caps how many task failures a [WorkerExecutor] keeps for
// [WorkerExecutor.Close]. Zero, the default, keeps all of them.
// WithMaxErrors panics if n is negative.
func WithMaxErrors(n int) Option {
	return func(c *config) {
		if n < 0 {
			panic("pollen: max errors must be non-negative")
		}
		c.maxErrors = n
	}
}

// WithOnEvent registers a hook receiving a [TaskEvent] for every task state
// change. The hook runs synchronously on the goroutine driving the task and
// must not block.
func WithOnEvent(fn func(TaskEvent)) Option {
	if fn == nil {
		panic("pollen: WithOnEvent requires non-nil callback")
	}
	return func(c *config) {
		c.onEvent = fn
	}
}
