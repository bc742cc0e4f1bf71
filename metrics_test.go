package coroflow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowrt/coroflow/metrics"
)

func TestMetricsTaskHooks_RecordsLifecycleCounters(t *testing.T) {
	provider := metrics.NewBasicProvider()
	hooks := newMetricsTaskHooks(provider)

	id := uuid.New()
	hooks.onStart(id)
	hooks.onStep(10 * time.Millisecond)
	hooks.onFinish(id, nil, 50*time.Millisecond)

	hooks.onStart(id)
	hooks.onFinish(id, errors.New("boom"), 5*time.Millisecond)

	started := provider.Counter("coroflow_tasks_started_total").(*metrics.BasicCounter)
	finished := provider.Counter("coroflow_tasks_finished_total").(*metrics.BasicCounter)
	failed := provider.Counter("coroflow_tasks_failed_total").(*metrics.BasicCounter)
	active := provider.UpDownCounter("coroflow_tasks_active").(*metrics.BasicUpDownCounter)

	require.Equal(t, int64(2), started.Snapshot())
	require.Equal(t, int64(2), finished.Snapshot())
	require.Equal(t, int64(1), failed.Snapshot())
	require.Equal(t, int64(0), active.Snapshot())
}

func TestQueueDepthSampler_TracksCallQueueLen(t *testing.T) {
	cq := NewCallQueue()
	provider := metrics.NewBasicProvider()
	gauge := provider.UpDownCounter("coroflow_callqueue_depth")

	stop := make(chan struct{})
	go queueDepthSampler(cq, gauge, stop)

	for i := 0; i < 5; i++ {
		cq.Add(func() {})
	}

	require.Eventually(t, func() bool {
		snap := gauge.(*metrics.BasicUpDownCounter).Snapshot()
		return snap > 0
	}, time.Second, 10*time.Millisecond)

	close(stop)
}
