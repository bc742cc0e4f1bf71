package coroflow

import "context"

// ForEachStream applies fn to each item from in concurrently for side
// effects only and streams back any failures on the returned channel, which
// closes once in has closed (or ctx is done) and every launched item has
// reported.
func ForEachStream[T any](ctx context.Context, in <-chan T, fn func(context.Context, T) error, opts ...BatchOption) <-chan error {
	_, errs := RunStream(ctx, in, func(c context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(c, item)
	}, opts...)
	return errs
}
