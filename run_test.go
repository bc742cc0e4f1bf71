package coroflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowrt/coroflow/metrics"
)

func TestRun_Success(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	ok := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		return inner.Finish("done")
	})
	ok.Start()

	result, err := Run(ok, cq, WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, "done", result)
}

func TestRun_WithMetricsRecordsTaskLifecycle(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()
	provider := metrics.NewBasicProvider()

	task := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		return inner.Finish(1)
	})
	task.Start()

	_, err := Run(task, cq, WithPollInterval(5*time.Millisecond), WithMetrics(provider))
	require.NoError(t, err)

	started := provider.Counter("coroflow_tasks_started_total").(*metrics.BasicCounter)
	finished := provider.Counter("coroflow_tasks_finished_total").(*metrics.BasicCounter)
	require.Equal(t, int64(1), started.Snapshot())
	require.Equal(t, int64(1), finished.Snapshot())
}

func TestRun_ThreadOffload(t *testing.T) {
	cq := NewCallQueue()
	ctx := context.Background()

	task := NewTask(ctx, cq, func(ctx context.Context, inner *Inner) error {
		values, err := inner.Await(inner.Thread(func(ctx context.Context) (interface{}, error) {
			return 21 * 2, nil
		}))
		if err != nil {
			return err
		}
		return inner.Finish(values...)
	})
	task.Start()

	result, err := Run(task, cq, WithPollInterval(5*time.Millisecond), WithFixedThreadPool(2))
	require.NoError(t, err)
	require.Equal(t, 42, result)
}
