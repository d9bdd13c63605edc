package pollen_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baxromumarov/pollen"
)

func ExampleBlockOn() {
	t := pollen.Map(pollen.Value(20), func(n int) int { return n + 22 })
	v, err := pollen.BlockOn(context.Background(), t)
	fmt.Println(v, err)
	// Output: 42 <nil>
}

func ExampleSpawn() {
	x := pollen.NewExecutor()
	a := pollen.Spawn(x, "a", pollen.Value("hello"))
	b := pollen.Spawn(x, "b", pollen.Value("world"))

	if err := x.RunUntilIdle(context.Background()); err != nil {
		fmt.Println("error:", err)
	}
	av, _ := a.TryResult()
	bv, _ := b.TryResult()
	fmt.Println(av, bv)
	// Output: hello world
}

func ExampleOneshot() {
	tx, rx := pollen.Oneshot[string]()
	go func() {
		_ = tx.Send("ping")
	}()
	v, err := pollen.BlockOn(context.Background(), rx)
	fmt.Println(v, err)
	// Output: ping <nil>
}

func ExampleBounded() {
	tx, rx := pollen.Bounded[int](2)
	_ = tx.TrySend(1)
	_ = tx.TrySend(2)
	fmt.Println(errors.Is(tx.TrySend(3), pollen.ErrFull))
	tx.Close()

	for {
		v, err := pollen.BlockOn(context.Background(), pollen.Next[int](rx))
		if err != nil {
			break
		}
		fmt.Println(v)
	}
	// Output:
	// true
	// 1
	// 2
}

func ExampleTimeout() {
	slow := pollen.AndThen(pollen.Sleep(time.Second), func(struct{}) pollen.Task[string] {
		return pollen.Value("late")
	})
	_, err := pollen.BlockOn(context.Background(), pollen.Timeout(slow, 10*time.Millisecond))
	fmt.Println(errors.Is(err, pollen.ErrTimeout))
	// Output: true
}

func ExampleJoinAll() {
	v, err := pollen.BlockOn(context.Background(), pollen.JoinAll(
		pollen.Value(1),
		pollen.SpawnBlocking(func() (int, error) { return 2, nil }),
		pollen.Value(3),
	))
	fmt.Println(v, err)
	// Output: [1 2 3] <nil>
}

func ExampleWorkerExecutor() {
	x := pollen.NewWorkerExecutor(2, pollen.WithPanicAsError())
	h := pollen.Spawn(x, "bad", pollen.TaskFunc[int](func(*pollen.Waker) pollen.Poll[int] {
		panic("boom")
	}))
	_, err := h.Wait(context.Background())

	var pe *pollen.PanicError
	fmt.Println(errors.As(err, &pe), pe.Value)
	fmt.Println(x.Close() != nil)
	// Output:
	// true boom
	// true
}
