package pollen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsValue(t *testing.T) {
	v, err := BlockOn(context.Background(), Value(10))
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestRunPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := BlockOn(context.Background(), Error[int](boom))
	assert.ErrorIs(t, err, boom)
}

func TestRunStalled(t *testing.T) {
	_, err := BlockOn(context.Background(), pendingForever[int]())
	require.ErrorIs(t, err, ErrStalled)
}

func TestRunStalledIsDistinctFromCompletion(t *testing.T) {
	x := NewExecutor()
	h := Spawn(x, "stuck", pendingForever[string]())
	ok := Spawn(x, "ok", Value("done"))

	err := x.RunUntilIdle(context.Background())
	require.ErrorIs(t, err, ErrStalled)

	_, err = h.TryResult()
	assert.ErrorIs(t, err, ErrStalled)
	v, err := ok.TryResult()
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, int64(1), x.Stats().Stalled)
}

func TestRunUntilIdleNoTasks(t *testing.T) {
	assert.NoError(t, NewExecutor().RunUntilIdle(context.Background()))
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	held := &heldTask[int]{}
	_, err := BlockOn[int](ctx, held)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSelfWakingTask(t *testing.T) {
	polls := 0
	task := TaskFunc[int](func(w *Waker) Poll[int] {
		polls++
		if polls < 5 {
			w.Wake()
			return Pending[int]()
		}
		return Ready(polls)
	})
	v, err := BlockOn[int](context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestReentrantWakesAreCoalesced(t *testing.T) {
	polls := 0
	task := TaskFunc[int](func(w *Waker) Poll[int] {
		polls++
		if polls == 1 {
			for range 10 {
				w.Wake()
			}
			return Pending[int]()
		}
		return Ready(polls)
	})
	v, err := BlockOn[int](context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "ten wakes during one poll queue a single re-poll")
}

func TestWakesWhileIdleAreCoalesced(t *testing.T) {
	x := NewExecutor()

	var clone *Waker
	polls := 0
	a := Spawn(x, "a", TaskFunc[int](func(w *Waker) Poll[int] {
		polls++
		if clone == nil {
			clone = w.Clone()
			return Pending[int]()
		}
		return Ready(polls)
	}))
	Spawn(x, "b", TaskFunc[struct{}](func(*Waker) Poll[struct{}] {
		for range 5 {
			clone.Wake()
		}
		return Ready(struct{}{})
	}))

	require.NoError(t, x.RunUntilIdle(context.Background()))
	v, err := a.TryResult()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSpawnFromTask(t *testing.T) {
	x := NewExecutor()
	outer := TaskFunc[Task[int]](func(*Waker) Poll[Task[int]] {
		return Ready[Task[int]](Spawn(x, "inner", Value(3)))
	})
	v, err := Run[int](context.Background(), x, AndThen[Task[int], int](outer, func(h Task[int]) Task[int] { return h }))
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestRunPanics(t *testing.T) {
	task := TaskFunc[int](func(*Waker) Poll[int] { panic("kaboom") })
	mustPanic(t, "kaboom", func() {
		_, _ = BlockOn[int](context.Background(), task)
	})
}

func TestRunPanicAsError(t *testing.T) {
	task := TaskFunc[int](func(*Waker) Poll[int] { panic("kaboom") })
	_, err := BlockOn[int](context.Background(), task, WithPanicAsError())

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestExecutorEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		events []TaskEvent
	)
	x := NewExecutor(WithOnEvent(func(ev TaskEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))
	Spawn(x, "ok", Value(1))
	Spawn(x, "bad", Error[int](errors.New("bad")))
	require.NoError(t, x.RunUntilIdle(context.Background()))

	kinds := map[string][]EventKind{}
	for _, ev := range events {
		kinds[ev.Task.Name] = append(kinds[ev.Task.Name], ev.Kind)
	}
	assert.Equal(t, []EventKind{EventSpawned, EventDone}, kinds["ok"])
	assert.Equal(t, []EventKind{EventSpawned, EventErrored}, kinds["bad"])
}

func TestExecutorStats(t *testing.T) {
	x := NewExecutor()
	for range 3 {
		Spawn(x, "v", Value(1))
	}
	require.NoError(t, x.RunUntilIdle(context.Background()))

	st := x.Stats()
	assert.Equal(t, int64(3), st.Spawned)
	assert.Equal(t, int64(3), st.Completed)
	assert.Equal(t, int64(3), st.Polls)
	assert.Equal(t, 0, st.Live)
	assert.Equal(t, 1, st.Workers)
}

func TestJoinHandleDetach(t *testing.T) {
	x := NewExecutor()
	ran := false
	h := Spawn(x, "detached", Lazy(func() (int, error) {
		ran = true
		return 1, nil
	}))
	h.Close()
	require.NoError(t, x.RunUntilIdle(context.Background()))
	assert.True(t, ran, "closing a handle does not stop the task")
}

func TestStalledTaskIsClosed(t *testing.T) {
	spy := &closeSpy[int]{}
	_, err := BlockOn[int](context.Background(), spy)
	require.ErrorIs(t, err, ErrStalled)
	assert.True(t, spy.closed.Load())
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "stalled", EventStalled.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
