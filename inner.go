package coroflow

import (
	"context"
	"time"
)

// Inner is the handle a Task's Func uses to talk to the outside world: read
// its input window, write to its current output, and temporarily hand
// output control to a subtask. Grounded in idiokit/threado.py's Inner.
type Inner struct {
	task *Task
}

func newInner(t *Task) *Inner {
	return &Inner{task: t}
}

// finishedError carries the values a Func passed to Inner.Finish, wrapped so
// a plain errors.Is(err, Finished) still reports true.
type finishedError struct {
	values []interface{}
}

func (f *finishedError) Error() string { return Finished.Error() }
func (f *finishedError) Unwrap() error { return Finished }

// Finish builds the error a Func should return to end successfully with
// values — e.g. `return inner.Finish(result)`.
func (i *Inner) Finish(values ...interface{}) error {
	return &finishedError{values: values}
}

// Send writes values to the task's current output.
func (i *Inner) Send(values ...interface{}) {
	i.task.cq.Add(func() { i.task.currentOutput().Send(values...) })
}

// Window returns the task's input fan-in Stream — the object a Func awaits
// in a loop to receive values sent to the task (via Send/Throw/Pipe).
func (i *Inner) Window() Stream {
	return i.task.innerWindow
}

// Await performs one suspend point: it hands s's read over to the task's
// CallQueue (so NextRaw and callback arming always run on the dispatcher
// goroutine, never on the coroutine's own goroutine) and blocks until s
// produces an Item. Mirrors the "yield a stream" step of a Python
// generator, adapted as the suspend half of the goroutine+rendezvous model.
func (i *Inner) Await(s Stream) ([]interface{}, error) {
	start := time.Now()
	resp := make(chan Item, 1)

	var arm func()
	arm = func() {
		item, ok := s.NextRaw()
		if ok {
			resp <- item
			return
		}
		s.AddMessageCallback(func(Stream) {
			i.task.cq.Add(arm)
		})
	}
	i.task.cq.Add(arm)

	item := <-resp
	i.task.cq.taskHooks().onStep(time.Since(start))
	if item.Throw {
		return nil, item.Err
	}
	return item.Values, nil
}

// Recv is a convenience wrapper around Await(i.Window()): block until the
// task receives its next sent value, thrown error, or upstream completion
// marker (an UpstreamFinished value among the returned values).
func (i *Inner) Recv() ([]interface{}, error) {
	return i.Await(i.Window())
}

// Sub temporarily redirects the task's output to other (a subtask or any
// other Stream) and forwards input meant for this task to other for as long
// as it runs. It returns a Channel that finalizes with other's own result
// once other completes, mirroring idiokit/threado.py's inner.sub: the
// generator typically does `values, err := inner.Await(inner.Sub(subtask))`.
func (i *Inner) Sub(other Stream) *Channel {
	ch := NewChannel(i.task.cq)

	// Best effort: only pipeable streams (chiefly other Tasks) can take over
	// input forwarding; a plain Channel or combinator simply skips this step.
	_ = other.Pipe(i.task.innerWindow)

	other.AddFinishCallback(func(Stream) {
		item, err := other.ResultRaw()
		if err != nil {
			return
		}
		if item.Throw {
			ch.Throw(item.Err)
		} else {
			ch.Finish(item.Values...)
		}
	})

	i.task.swapOutput(other)
	return ch
}

// ThreadFunc is offloaded work run on a bounded worker pool rather than the
// dispatcher goroutine; see threadpool.go for the pool wiring.
type ThreadFunc func(ctx context.Context) (interface{}, error)

// Thread runs fn on the task's worker pool and returns a Stream that
// finishes with fn's single return value, or throws fn's error. Await it
// the same way as any other Stream. Grounded in idiokit/threadpool.py's
// Inner.thread.
func (i *Inner) Thread(fn ThreadFunc) Stream {
	return runOnThreadPool(i.task.ctx, i.task.cq, fn)
}
