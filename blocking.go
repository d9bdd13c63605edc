package pollen

// Result pairs a value with the error produced alongside it.
type Result[T any] struct {
	Value T
	Err   error
}

// SpawnBlocking starts fn on its own goroutine and returns a task that
// resolves to fn's result. The outcome always crosses a one-shot channel as
// a [Result], so the task resolves to a definite value or error; a panic in
// fn resolves it to a [*PanicError].
//
// Closing the task discards the result but does not interrupt fn.
func SpawnBlocking[T any](fn func() (T, error)) Task[T] {
	if fn == nil {
		panic("pollen: SpawnBlocking requires a non-nil function")
	}
	tx, rx := Oneshot[Result[T]]()
	go runBlocking(tx, fn)
	return &blockingTask[T]{rx: rx}
}

func runBlocking[T any](tx *OneshotSender[Result[T]], fn func() (T, error)) Result[T] {
	var res Result[T]
	if pe := catch(func() { res.Value, res.Err = fn() }); pe != nil {
		res = Result[T]{Err: pe}
	}
	// The receiver may be gone; the result is then discarded.
	_ = tx.Send(res)
	return res
}

type blockingTask[T any] struct {
	rx *OneshotReceiver[Result[T]]
}

func (b *blockingTask[T]) Poll(w *Waker) Poll[T] {
	p := b.rx.Poll(w)
	if p.IsPending() {
		return Pending[T]()
	}
	r, err := p.Result()
	if err != nil {
		return Fail[T](err)
	}
	return Resolve(r.Value, r.Err)
}

func (b *blockingTask[T]) Close() { b.rx.Close() }
