package coroflow

import "context"

// RunStream consumes items from in and runs fn for each concurrently, each as
// its own Task offloading onto runStreamEngine's thread pool. Results and
// errors are delivered on the returned channels as they complete; both are
// closed once in has closed (or ctx is done) and every launched item has
// reported.
//
// A generic worker-pool instance constructing and forwarding tasks is
// replaced here by the Task/CallQueue pair runStreamEngine drives directly.
func RunStream[T, R any](ctx context.Context, in <-chan T, fn func(context.Context, T) (R, error), opts ...BatchOption) (<-chan R, <-chan error) {
	cfg := defaultBatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return runStreamEngine(ctx, in, fn, cfg)
}
