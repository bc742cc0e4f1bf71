package coroflow

import "context"

// ForEach applies fn to each item concurrently for side effects only and
// returns the joined error of any failures (nil if all succeeded).
func ForEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error, opts ...BatchOption) error {
	if len(items) == 0 {
		return nil
	}
	_, err := Map(ctx, items, func(c context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(c, item)
	}, opts...)
	return err
}
