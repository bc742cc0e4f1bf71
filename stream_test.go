package coroflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func drainResults[R any](t *testing.T, results <-chan R, errs <-chan error, timeout time.Duration) ([]R, []error) {
	t.Helper()
	var rs []R
	var es []error
	deadline := time.After(timeout)
	resultsOpen, errsOpen := true, true
	for resultsOpen || errsOpen {
		select {
		case r, ok := <-results:
			if !ok {
				resultsOpen = false
				results = nil
				continue
			}
			rs = append(rs, r)
		case e, ok := <-errs:
			if !ok {
				errsOpen = false
				errs = nil
				continue
			}
			es = append(es, e)
		case <-deadline:
			t.Fatal("timed out draining stream engine output")
		}
	}
	return rs, es
}

func TestRunStream_CompletesAllItems(t *testing.T) {
	ctx := context.Background()
	in := make(chan int, 5)
	for i := 1; i <= 5; i++ {
		in <- i
	}
	close(in)

	results, errs := RunStream(ctx, in, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	rs, es := drainResults(t, results, errs, time.Second)
	require.Empty(t, es)
	require.ElementsMatch(t, []int{2, 4, 6, 8, 10}, rs)
}

func TestMapStream_PreservesOrderWhenRequested(t *testing.T) {
	ctx := context.Background()
	in := make(chan int, 4)
	for i := 1; i <= 4; i++ {
		in <- i
	}
	close(in)

	results, errs := MapStream(ctx, in, func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	}, WithPreserveOrder())

	rs, es := drainResults(t, results, errs, time.Second)
	require.Empty(t, es)
	require.Equal(t, []int{1, 4, 9, 16}, rs)
}

func TestForEachStream_ReportsFailuresWithoutStopping(t *testing.T) {
	ctx := context.Background()
	in := make(chan int, 4)
	for i := 1; i <= 4; i++ {
		in <- i
	}
	close(in)

	boom := errors.New("odd rejected")
	errs := ForEachStream(ctx, in, func(ctx context.Context, n int) error {
		if n%2 != 0 {
			return boom
		}
		return nil
	})

	var got []error
	deadline := time.After(time.Second)
	for e := range merge(errs, deadline) {
		got = append(got, e)
	}
	require.Len(t, got, 2)
	for _, e := range got {
		require.True(t, errors.Is(e, boom))
	}
}

// merge drains errs until it closes, or forwards nothing further once
// deadline fires (used only to bound the test, not production code).
func merge(errs <-chan error, deadline <-chan time.Time) <-chan error {
	out := make(chan error)
	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-errs:
				if !ok {
					return
				}
				out <- e
			case <-deadline:
				return
			}
		}
	}()
	return out
}

func TestRunStream_StopOnErrorCancelsRemainingWork(t *testing.T) {
	ctx := context.Background()
	in := make(chan int, 10)
	for i := 1; i <= 10; i++ {
		in <- i
	}
	close(in)

	boom := errors.New("stop now")
	results, errs := RunStream(ctx, in, func(ctx context.Context, n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	}, WithStopOnError(), WithConcurrency(1))

	_, es := drainResults(t, results, errs, time.Second)
	require.NotEmpty(t, es)
	require.True(t, errors.Is(es[0], boom))
}
