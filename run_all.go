package coroflow

import "context"

// WorkItem pairs a value with the function RunAll should call for it. Map
// builds these automatically from a plain slice and function; RunAll is the
// lower-level entry point for callers who want distinct functions per item.
type WorkItem[T, R any] struct {
	Value T
	Fn    func(context.Context, T) (R, error)
}

// RunAll runs every item concurrently, each as its own Task offloading onto
// the batch engine's thread pool, and collects their results. By default
// results are returned in completion order; WithPreserveOrder restores
// input order. The returned error joins every item's failure (nil if none).
//
// The manual Start/AddTask/wait/Close lifecycle of a worker-pool instance
// is replaced here by the Task/CallQueue lifecycle runBatch drives
// directly.
func RunAll[T, R any](ctx context.Context, items []WorkItem[T, R], opts ...BatchOption) ([]R, error) {
	cfg := defaultBatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return runBatch(ctx, items, func(c context.Context, it WorkItem[T, R]) (R, error) {
		return it.Fn(c, it.Value)
	}, cfg)
}
