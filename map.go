package coroflow

import "context"

// Map applies fn to every item concurrently and returns its results (by
// default in completion order; WithPreserveOrder restores input order) plus
// the joined error of any failures. Thin convenience wrapper over RunAll.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts ...BatchOption) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	work := make([]WorkItem[T, R], len(items))
	for i, item := range items {
		work[i] = WorkItem[T, R]{Value: item, Fn: fn}
	}
	return RunAll(ctx, work, opts...)
}
