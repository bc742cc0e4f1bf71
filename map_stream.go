package coroflow

import "context"

// MapStream is RunStream under its Map-parallel name: consume items from in,
// apply fn concurrently, and stream back results and errors as they
// complete. The two are identical here because, unlike RunAll/Map, a stream
// engine only ever takes a single shared fn.
func MapStream[T, R any](ctx context.Context, in <-chan T, fn func(context.Context, T) (R, error), opts ...BatchOption) (<-chan R, <-chan error) {
	return RunStream(ctx, in, fn, opts...)
}
