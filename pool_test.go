package pollen

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffload(t *testing.T) {
	p := NewBlockingPool(2)
	defer p.Close()

	v, err := block(t, Offload(p, func() (int, error) { return 9, nil }))
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	st := p.Stats()
	assert.Equal(t, int64(1), st.Submitted)
	assert.Equal(t, 2, st.Workers)
}

func TestOffloadSuspendsWhileQueueFull(t *testing.T) {
	p := NewBlockingPool(1, WithQueueSize(1))
	defer p.Close()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	first := Offload(p, func() (int, error) {
		started.Done()
		<-release
		return 1, nil
	})
	w, _ := countingWaker()
	require.True(t, first.Poll(w).IsPending())
	started.Wait() // worker busy, queue empty

	second := Offload(p, func() (int, error) { return 2, nil })
	require.True(t, second.Poll(w).IsPending()) // queued

	third := Offload(p, func() (int, error) { return 3, nil })
	require.True(t, third.Poll(w).IsPending()) // parked on the full queue
	assert.Equal(t, 1, p.Stats().Waiting)

	close(release)
	v, err := block(t, JoinAll(first, second, third))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v)
}

func TestOffloadAfterClose(t *testing.T) {
	p := NewBlockingPool(1)
	p.Close()
	p.Close()

	_, err := block(t, Offload(p, func() (int, error) { return 1, nil }))
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestOffloadPanicCounted(t *testing.T) {
	p := NewBlockingPool(1)
	_, err := block(t, Offload(p, func() (int, error) { panic("boom") }))
	p.Close()

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, int64(1), p.Stats().Errored)
	assert.Equal(t, int64(1), p.Stats().Completed)
}

func TestPoolMetrics(t *testing.T) {
	var calls atomic.Int32
	p := NewBlockingPool(1, WithPoolMetrics(5*time.Millisecond, func(PoolStats) { calls.Add(1) }))
	time.Sleep(30 * time.Millisecond)
	p.Close()
	assert.Positive(t, calls.Load())
}

func TestPoolOptionPanics(t *testing.T) {
	mustPanic(t, "n > 0", func() { NewBlockingPool(0) })
	mustPanic(t, "non-negative", func() { WithQueueSize(-1)(&poolConfig{}) })
	mustPanic(t, "interval > 0", func() { WithPoolMetrics(0, func(PoolStats) {}) })
	mustPanic(t, "non-nil callback", func() { WithPoolMetrics(time.Second, nil) })
}
