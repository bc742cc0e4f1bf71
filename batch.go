package coroflow

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flowrt/coroflow/metrics"
)

// BatchOption configures the batch engine backing RunAll/Map/ForEach and
// their streaming counterparts, following the same functional-options
// pattern as Run's own options in options.go/config.go, retargeted from
// worker-pool sizing to this package's Task-based batch engine.
type BatchOption func(*batchConfig)

type batchConfig struct {
	concurrency   uint // 0 = unbounded (dynamic pool)
	stopOnError   bool
	preserveOrder bool
	errorTagging  bool
	metrics       metrics.Provider
}

func defaultBatchConfig() batchConfig {
	return batchConfig{metrics: metrics.NewNoopProvider()}
}

// WithConcurrency bounds how many items run at once (0, the default, means
// unbounded/dynamic).
func WithConcurrency(n uint) BatchOption {
	return func(c *batchConfig) { c.concurrency = n }
}

// WithStopOnError cancels remaining in-flight items on the first error.
func WithStopOnError() BatchOption {
	return func(c *batchConfig) { c.stopOnError = true }
}

// WithPreserveOrder emits results in input order instead of completion order.
func WithPreserveOrder() BatchOption {
	return func(c *batchConfig) { c.preserveOrder = true }
}

// WithErrorTagging wraps every item error in a *TaskError carrying its index.
func WithErrorTagging() BatchOption {
	return func(c *batchConfig) { c.errorTagging = true }
}

// WithBatchMetrics attaches a metrics.Provider to the batch engine's
// active-item gauge (RunAll/Map/ForEach). The streaming engine records no
// metrics.
func WithBatchMetrics(p metrics.Provider) BatchOption {
	return func(c *batchConfig) {
		if p != nil {
			c.metrics = p
		}
	}
}

// batchOutcome is one item's outcome, tagged with its input index.
type batchOutcome[R any] struct {
	idx int
	val R
	err error
}

// runBatch is the shared engine behind RunAll and ForEach: each item runs as
// its own Task whose Func offloads fn onto the thread pool via Inner.Thread
// and suspends on Inner.Await, so the batch engine exercises the same
// suspend/resume machinery a hand-written Task would. The backing CallQueue
// is private to this call and is drained until every item has reported.
func runBatch[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), cfg batchConfig) ([]R, error) {
	n := len(items)
	if n == 0 {
		return nil, nil
	}

	cq := NewCallQueue()
	cq.setThreadPool(newThreadPool(cfg.concurrency == 0, cfg.concurrency))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	active := cfg.metrics.UpDownCounter("coroflow_batch_active_items")

	outcomes := make(chan batchOutcome[R], n)
	var stopOnce sync.Once

	for idx, item := range items {
		idx, item := idx, item
		active.Add(1)
		NewTask(runCtx, cq, func(tctx context.Context, inner *Inner) error {
			defer active.Add(-1)
			values, err := inner.Await(inner.Thread(func(wctx context.Context) (interface{}, error) {
				return fn(wctx, item)
			}))
			if err != nil {
				if cfg.errorTagging {
					err = newTaskError(err, nil, idx)
				}
				outcomes <- batchOutcome[R]{idx: idx, err: err}
				if cfg.stopOnError {
					stopOnce.Do(cancel)
				}
				return inner.Finish()
			}
			var v R
			if len(values) > 0 {
				if typed, ok := values[0].(R); ok {
					v = typed
				}
			}
			outcomes <- batchOutcome[R]{idx: idx, val: v}
			return inner.Finish()
		}).Start()
	}

	var received int32
	go drainUntil(cq, func() bool { return atomic.LoadInt32(&received) >= int32(n) })

	collected := make([]batchOutcome[R], 0, n)
	for len(collected) < n {
		collected = append(collected, <-outcomes)
		atomic.AddInt32(&received, 1)
	}

	if cfg.preserveOrder {
		sort.Slice(collected, func(i, j int) bool { return collected[i].idx < collected[j].idx })
	}

	results := make([]R, 0, n)
	var errs []error
	for _, it := range collected {
		if it.err != nil {
			errs = append(errs, it.err)
			continue
		}
		results = append(results, it.val)
	}
	return results, joinErrors(errs)
}

// drainUntil repeatedly iterates cq, sleeping in short bounded increments
// between iterations, until done reports true. A lighter-weight sibling of
// Run's loop for internal engines that don't have a single "main" Stream to
// watch.
func drainUntil(cq *CallQueue, done func() bool) {
	notify := make(chan struct{}, 1)
	iterate, release := cq.Exclusive(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer release()

	for {
		iterate()
		if done() {
			return
		}
		select {
		case <-notify:
		case <-time.After(20 * time.Millisecond):
		}
	}
}
