package pollen

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerExecutorRunsTasks(t *testing.T) {
	x := NewWorkerExecutor(4)

	handles := make([]*JoinHandle[int], 50)
	for i := range handles {
		handles[i] = Spawn(x, fmt.Sprintf("task-%d", i), SpawnBlocking(func() (int, error) {
			return i * i, nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i, h := range handles {
		v, err := h.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, i*i, v)
	}
	require.NoError(t, x.Close())
	assert.Equal(t, int64(50), x.Stats().Completed)
}

func TestWorkerExecutorNeverPollsConcurrently(t *testing.T) {
	x := NewWorkerExecutor(8)
	defer x.Close()

	var (
		inPoll     atomic.Bool
		violations atomic.Int32
		polls      int
	)
	task := TaskFunc[int](func(w *Waker) Poll[int] {
		if !inPoll.CompareAndSwap(false, true) {
			violations.Add(1)
		}
		defer inPoll.Store(false)

		polls++
		if polls >= 300 {
			return Ready(polls)
		}
		// Wake from several goroutines at once, and re-entrantly.
		for range 3 {
			c := w.Clone()
			go c.Wake()
		}
		w.Wake()
		runtime.Gosched()
		return Pending[int]()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	v, err := Spawn(x, "hammered", task).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, v)
	assert.Zero(t, violations.Load())
}

func TestWorkerExecutorStall(t *testing.T) {
	x := NewWorkerExecutor(2)
	defer x.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Spawn(x, "stuck", pendingForever[int]()).Wait(ctx)
	assert.ErrorIs(t, err, ErrStalled)
}

func TestWorkerExecutorCloseCollectsErrors(t *testing.T) {
	x := NewWorkerExecutor(2)
	boom := errors.New("boom")
	Spawn(x, "ok", Value(1))
	Spawn(x, "bad", Error[int](boom))

	err := x.Close()
	require.ErrorIs(t, err, boom)

	tes := AllTaskErrors(err)
	require.Len(t, tes, 1)
	assert.Equal(t, "bad", tes[0].Task.Name)

	assert.Equal(t, err, x.Close(), "Close is idempotent")
}

func TestWorkerExecutorMaxErrors(t *testing.T) {
	x := NewWorkerExecutor(2, WithMaxErrors(2))
	for i := range 5 {
		Spawn(x, fmt.Sprint(i), Error[int](errors.New("bad")))
	}
	assert.Len(t, AllTaskErrors(x.Close()), 2)
}

func TestWorkerExecutorSpawnAfterClose(t *testing.T) {
	x := NewWorkerExecutor(1)
	require.NoError(t, x.Close())

	h := Spawn(x, "late", Value(1))
	_, err := h.TryResult()
	assert.ErrorIs(t, err, ErrExecutorClosed)
}

func TestWorkerExecutorShutdownDeadline(t *testing.T) {
	x := NewWorkerExecutor(2)
	held := &heldTask[int]{}
	h := Spawn[int](x, "held", held)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := x.Shutdown(ctx)
	require.ErrorIs(t, err, ErrExecutorClosed)

	_, err = h.TryResult()
	assert.ErrorIs(t, err, ErrExecutorClosed)
	assert.True(t, held.isClosed(), "abandoned tasks are closed")
}

func TestWorkerExecutorShutdownDeadlineWithBusyTask(t *testing.T) {
	x := NewWorkerExecutor(2)
	busy := Spawn(x, "busy", TaskFunc[int](func(w *Waker) Poll[int] {
		w.Wake()
		return Pending[int]()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- x.Shutdown(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrExecutorClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown ignored its deadline while a task kept waking itself")
	}

	_, err := busy.TryResult()
	assert.ErrorIs(t, err, ErrExecutorClosed)
	assert.Equal(t, 0, x.Len())
}

func TestWorkerExecutorRepanicsOnClose(t *testing.T) {
	x := NewWorkerExecutor(1)
	h := Spawn(x, "panicky", TaskFunc[int](func(*Waker) Poll[int] { panic("kaboom") }))

	mustPanic(t, "kaboom", func() { _ = x.Close() })

	_, err := h.TryResult()
	var pe *PanicError
	assert.ErrorAs(t, err, &pe)
}

func TestWorkerExecutorPanicAsError(t *testing.T) {
	x := NewWorkerExecutor(1, WithPanicAsError())
	Spawn(x, "panicky", TaskFunc[int](func(*Waker) Poll[int] { panic("kaboom") }))

	err := x.Close()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
}

func TestWorkerExecutorEventsFromWorkers(t *testing.T) {
	var (
		mu    sync.Mutex
		count = map[EventKind]int{}
	)
	x := NewWorkerExecutor(4, WithOnEvent(func(ev TaskEvent) {
		mu.Lock()
		count[ev.Kind]++
		mu.Unlock()
	}))
	for range 20 {
		Spawn(x, "v", Value(1))
	}
	require.NoError(t, x.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count[EventSpawned])
	assert.Equal(t, 20, count[EventDone])
}

func TestNewWorkerExecutorPanics(t *testing.T) {
	mustPanic(t, "n > 0", func() { NewWorkerExecutor(0) })
}
