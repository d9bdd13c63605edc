package pollen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneshotResolutionIsStable(t *testing.T) {
	tx, rx := Oneshot[string]()
	w, _ := countingWaker()

	assert.True(t, rx.Poll(w).IsPending())
	require.NoError(t, tx.Send("hello"))

	for range 5 {
		p := rx.Poll(w)
		require.True(t, p.IsReady())
		v, err := p.Result()
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	}
}

func TestOneshotSendWakesReceiver(t *testing.T) {
	tx, rx := Oneshot[int]()
	w, n := countingWaker()

	require.True(t, rx.Poll(w).IsPending())
	require.True(t, rx.Poll(w).IsPending())
	assert.Equal(t, int32(0), n.Load())

	require.NoError(t, tx.Send(1))
	assert.Equal(t, int32(1), n.Load())
}

func TestOneshotSenderClosedCancels(t *testing.T) {
	tx, rx := Oneshot[int]()
	w, n := countingWaker()

	require.True(t, rx.Poll(w).IsPending())
	tx.Close()
	assert.Equal(t, int32(1), n.Load())

	for range 3 {
		p := rx.Poll(w)
		require.True(t, p.IsReady())
		assert.ErrorIs(t, p.Err(), ErrCancelled)
	}

	_, err := rx.TryRecv()
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestOneshotReceiverClosedDisconnects(t *testing.T) {
	tx, rx := Oneshot[int]()
	rx.Close()

	err := tx.Send(99)
	require.ErrorIs(t, err, ErrDisconnected)

	var se *SendError[int]
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 99, se.Value, "unsent value is handed back")
}

func TestOneshotSendTwice(t *testing.T) {
	tx, rx := Oneshot[int]()
	require.NoError(t, tx.Send(1))
	assert.ErrorIs(t, tx.Send(2), ErrClosed)

	v, err := rx.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Close after send changes nothing.
	tx.Close()
	v, err = rx.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestOneshotTryRecvEmpty(t *testing.T) {
	_, rx := Oneshot[int]()
	_, err := rx.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestOneshotPollCancelled(t *testing.T) {
	tx, rx := Oneshot[int]()
	w, n := countingWaker()

	assert.False(t, tx.IsCancelled())
	require.True(t, tx.PollCancelled(w).IsPending())

	rx.Close()
	assert.Equal(t, int32(1), n.Load())
	assert.True(t, tx.IsCancelled())
	assert.True(t, tx.PollCancelled(w).IsReady())
}

func TestOneshotAcrossGoroutines(t *testing.T) {
	tx, rx := Oneshot[int]()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		_ = tx.Send(5)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := BlockOn[int](ctx, rx)
	wg.Wait()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestOneshotDroppedSenderUnderExecutor(t *testing.T) {
	tx, rx := Oneshot[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		tx.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := BlockOn[int](ctx, rx)
	assert.ErrorIs(t, err, ErrCancelled, "receiver must resolve, never hang")
}
