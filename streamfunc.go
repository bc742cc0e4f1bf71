package coroflow

import "context"

// StreamFunc adapts a Func into a factory that constructs and immediately
// starts a Task each time it's called, mirroring idiokit/threado.py's
// stream(func) decorator: there, wrapping a generator function with @stream
// turns it into a callable that builds a FuncStream and starts it inside
// FuncStream's own __init__, so the caller never sees an unstarted stream.
// Named StreamFunc rather than Stream since the latter already names this
// package's core Stream interface. Since Go has no decorator syntax,
// StreamFunc takes fn once and hands back the per-call constructor directly,
// rather than taking (ctx, cq, fn) and starting a single Task — that shape
// is already NewTask(...).Start().
func StreamFunc(fn Func) func(ctx context.Context, cq *CallQueue) *Task {
	return func(ctx context.Context, cq *CallQueue) *Task {
		return NewTask(ctx, cq, fn).Start()
	}
}
