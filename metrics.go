package coroflow

import (
	"time"

	"github.com/flowrt/coroflow/metrics"
	"github.com/google/uuid"
)

// metricsTaskHooks is the taskHooks implementation WithMetrics installs: it
// records task start/finish counts and step latency against a
// metrics.Provider, and maintains an active-task gauge raised on start and
// lowered on finish. Task itself stays unaware of metrics.Provider —
// it only ever sees the taskHooks interface.
type metricsTaskHooks struct {
	started  metrics.Counter
	finished metrics.Counter
	failed   metrics.Counter
	active   metrics.UpDownCounter
	stepLat  metrics.Histogram
	runLat   metrics.Histogram
}

func newMetricsTaskHooks(p metrics.Provider) *metricsTaskHooks {
	return &metricsTaskHooks{
		started:  p.Counter("coroflow_tasks_started_total"),
		finished: p.Counter("coroflow_tasks_finished_total"),
		failed:   p.Counter("coroflow_tasks_failed_total"),
		active:   p.UpDownCounter("coroflow_tasks_active"),
		stepLat:  p.Histogram("coroflow_task_step_seconds"),
		runLat:   p.Histogram("coroflow_task_run_seconds"),
	}
}

func (h *metricsTaskHooks) onStart(uuid.UUID) {
	h.started.Add(1)
	h.active.Add(1)
}

func (h *metricsTaskHooks) onStep(dur time.Duration) {
	h.stepLat.Record(dur.Seconds())
}

func (h *metricsTaskHooks) onFinish(_ uuid.UUID, err error, dur time.Duration) {
	h.active.Add(-1)
	h.finished.Add(1)
	if err != nil {
		h.failed.Add(1)
	}
	h.runLat.Record(dur.Seconds())
}

// queueDepthSampler periodically records cq.Len() into a gauge until stop is
// closed. Run starts one when given a non-noop metrics.Provider.
func queueDepthSampler(cq *CallQueue, gauge metrics.UpDownCounter, stop <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	last := int64(0)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cur := int64(cq.Len())
			if delta := cur - last; delta != 0 {
				gauge.Add(delta)
				last = cur
			}
		}
	}
}
