package coroflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// S5 — Sub: a task yields inner.Sub(Q), Q finalizes with 7, the task
// resumes with 7. Downstream readers observe Q's outputs inline before the
// task's own.
func TestInner_Sub(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	q := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		inner.Send("from-q")
		return inner.Finish(7)
	})

	outer := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		values, err := inner.Await(inner.Sub(q))
		if err != nil {
			return err
		}
		inner.Send("from-outer")
		return inner.Finish(values...)
	})

	q.Start()
	outer.Start()

	result, err := Run(outer, cq, WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 7, result)
}

// S6 — Failure propagation: a task that returns a user failure terminates
// its output with (throw=true, err); Run re-raises it with the chain intact.
func TestTask_FailurePropagation(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	userErr := errors.New("user failure")
	task := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		return userErr
	})
	task.Start()

	result, err := Run(task, cq, WithPollInterval(5*time.Millisecond))
	require.Nil(t, result)
	require.True(t, errors.Is(err, userErr))
}

func TestTask_PanicBecomesError(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	task := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		panic("boom")
	})
	task.Start()

	_, err := Run(task, cq, WithPollInterval(5*time.Millisecond))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTaskPanicked))
}

func TestTask_SendRoundTrip(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	echo := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		values, err := inner.Recv()
		if err != nil {
			return err
		}
		return inner.Finish(values...)
	})
	echo.Start()
	echo.Send(5)

	result, err := Run(echo, cq, WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 5, result)
}
