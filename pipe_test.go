package coroflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func multiplyTask(ctx context.Context, cq *CallQueue) *Task {
	var last int
	return NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		for {
			values, err := inner.Recv()
			if err != nil {
				return err
			}
			if len(values) == 1 {
				if uf, ok := values[0].(UpstreamFinished); ok {
					if uf.Result.Throw {
						return uf.Result.Err
					}
					return inner.Finish(last)
				}
			}
			for _, v := range values {
				n, ok := v.(int)
				if !ok {
					continue
				}
				last = n * 10
				inner.Send(last)
			}
		}
	})
}

// S2 — Pipe ordering: A emits 1,2,3,finish; B multiplies by 10 and finishes
// with the last computed value; run(A|B) returns 30.
func TestCompose_PipeOrdering(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	a := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		inner.Send(1)
		inner.Send(2)
		inner.Send(3)
		return inner.Finish()
	})
	b := multiplyTask(ctx, cq)

	pair := Compose(cq, a, b)
	a.Start()
	b.Start()

	result, err := Run(pair, cq, WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 30, result)
}

// S3 — Broken pipe: A emits forever; B emits one value and finishes;
// run(A|B) returns B's value, and A's coroutine observes BrokenPipe.
func TestCompose_BrokenPipe(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	aObservedBreak := make(chan error, 1)
	a := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		n := 0
		for {
			inner.Send(n)
			n++
			values, err := inner.Recv()
			if err != nil {
				aObservedBreak <- err
				return err
			}
			for _, v := range values {
				if uf, ok := v.(UpstreamFinished); ok {
					aObservedBreak <- uf.Result.Err
					return uf.Result.Err
				}
			}
		}
	})
	b := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		if _, err := inner.Recv(); err != nil {
			return err
		}
		return inner.Finish(99)
	})

	pair := Compose(cq, a, b)
	a.Start()
	b.Start()

	result, err := Run(pair, cq, WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 99, result)

	select {
	case brokeErr := <-aObservedBreak:
		require.True(t, errors.Is(brokeErr, BrokenPipe))
	case <-time.After(time.Second):
		t.Fatal("A never observed BrokenPipe")
	}
}
