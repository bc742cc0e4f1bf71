package coroflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Func is the body of a Task: a plain Go function running on its own
// goroutine, given an Inner through which it reads its input and writes its
// output. Returning nil finishes the task successfully with no values;
// returning the error built by Inner.Finish finishes successfully with its
// values, and any other error wrapping Finished finishes successfully with
// no values; any other error throws. Grounded in
// idiokit/threado.py's FuncStream, the concrete case of GeneratorStream
// actually used throughout the reference implementation.
type Func func(ctx context.Context, inner *Inner) error

type taskState int32

const (
	taskNew taskState = iota
	taskRunning
	taskDone
)

// taskHooks lets an optional observability layer (see metrics.go) learn
// about task lifecycle transitions without Task depending on it directly.
type taskHooks interface {
	onStart(id uuid.UUID)
	onStep(dur time.Duration)
	onFinish(id uuid.UUID, err error, dur time.Duration)
}

type noopTaskHooks struct{}

func (noopTaskHooks) onStart(uuid.UUID)                        {}
func (noopTaskHooks) onStep(time.Duration)                     {}
func (noopTaskHooks) onFinish(uuid.UUID, error, time.Duration) {}

var defaultTaskHooks taskHooks = noopTaskHooks{}

// Task is a generator-stream: a coroutine that reads values sent to it via
// Send/Throw/Pipe and writes values to its own output via Inner, suspending
// on Inner.Await in between. There is no native Go analogue of a Python
// generator, so the coroutine body runs to completion on its own goroutine
// and Await blocks that goroutine on a private rendezvous channel while
// handing the actual Stream read over to the owning CallQueue — this is
// option (b) from the design notes: explicit continuation via goroutine +
// channel, rather than attempting a step-by-step resumable state machine.
type Task struct {
	base

	cq  *CallQueue
	ctx context.Context
	id  uuid.UUID
	fn  Func

	mu    sync.Mutex
	state taskState

	input       *Channel
	innerWindow *pipeSet
	inner       *Inner

	output   *Channel
	outStack *outputStack
}

// NewTask constructs a Task in the NEW state. Call Start to run it.
func NewTask(ctx context.Context, cq *CallQueue, fn Func) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &Task{
		cq:          cq,
		ctx:         ctx,
		id:          uuid.New(),
		fn:          fn,
		input:       NewChannel(cq),
		innerWindow: newPipeSet(cq),
		output:      NewChannel(cq),
	}
	t.outStack = newOutputStack(cq, func(result *Item) { t.signalActivity(result) })
	t.base = newBase(t, t.outStack.nextRaw, t.outStack.isFinal)
	t.innerWindow.pipeIn(t.input)
	t.outStack.push(t.output)
	t.inner = newInner(t)
	return t
}

// ID returns the task's correlation identifier, used in TaskError.
func (t *Task) ID() uuid.UUID { return t.id }

// Pipe routes other into this task's input window (fan-in).
func (t *Task) Pipe(other Stream) error {
	t.innerWindow.pipeIn(other)
	return nil
}

// Send pushes values into this task's input window.
func (t *Task) Send(values ...interface{}) { t.input.Send(values...) }

// Throw pushes a failure into this task's input window.
func (t *Task) Throw(err error) { t.input.Throw(err) }

// Start transitions NEW -> RUNNING and launches the coroutine goroutine.
// Calling Start more than once is a no-op.
func (t *Task) Start() *Task {
	t.mu.Lock()
	if t.state != taskNew {
		t.mu.Unlock()
		return t
	}
	t.state = taskRunning
	t.mu.Unlock()

	runningTasks.add(t)
	t.cq.Add(func() { t.cq.taskHooks().onStart(t.id) })
	go t.runCoroutine()
	return t
}

func (t *Task) runCoroutine() {
	start := time.Now()
	var runErr error

	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}

		t.mu.Lock()
		t.state = taskDone
		t.mu.Unlock()

		item := outcomeItem(runErr)
		dur := time.Since(start)
		// queued ahead of finishWith's thunks, so it runs before main's
		// result is latched; a successful finish reports a nil error.
		t.cq.Add(func() { t.cq.taskHooks().onFinish(t.id, item.Err, dur) })
		t.finishWith(item)
	}()

	runErr = t.fn(t.ctx, t.inner)
}

// outcomeItem translates a Func's return value into the terminal Item
// pushed onto the task's output.
func outcomeItem(err error) Item {
	if err == nil {
		return FinishItem()
	}
	var fin *finishedError
	if errors.As(err, &fin) {
		return FinishItem(fin.values...)
	}
	if errors.Is(err, Finished) {
		return FinishItem()
	}
	return ThrowItem(err)
}

// finishWith ends the task: its input window is finalized (discarding any
// upstream pipe subscriptions), the output stack itself is finalized so
// HasResult observers don't need to pull a final NextRaw to notice
// completion, and the matching terminal Item is separately pushed onto the
// currently active output channel so any stack entries still ahead of it
// drain normally before a puller reaches this result. Grounded in
// idiokit/threado.py's GeneratorStream.inner_finish, which calls both
// self._finish(...) (the stack's own direct signal_activity) and
// self.output.finish(...)/throw(...) (the plain channel push).
func (t *Task) finishWith(item Item) {
	runningTasks.remove(t)
	t.innerWindow.finish(item)
	t.outStack.finish(item)

	if item.Throw {
		t.output.Throw(item.Err)
	} else {
		t.output.Finish(item.Values...)
	}
}

// swapOutput temporarily redirects the task's output: other is pushed onto
// the output stack ahead of a freshly created channel, and the previously
// active output channel is finished so the stack pops it once drained. Used
// by Inner.Sub. All field access below must run on the call queue.
func (t *Task) swapOutput(other Stream) {
	t.cq.Add(func() {
		old := t.output
		t.output = NewChannel(t.cq)
		old.Finish()
		t.outStack.push(other)
		t.outStack.push(t.output)
	})
}

// currentOutput returns the output channel currently receiving
// Inner.Send/Finish/Throw traffic. Must only be called from the call queue.
func (t *Task) currentOutput() *Channel {
	return t.output
}
