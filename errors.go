package coroflow

import (
	"errors"
	"fmt"

	"github.com/ygrebnov/errorc"
)

// Namespace prefixes every sentinel error message under one namespace
// constant for the whole package.
const Namespace = "coroflow"

var (
	// Finished is the control-flow marker a Task's coroutine uses to signal
	// normal termination. It is not user-visible unless a consumer treats an
	// unexpected close as an error.
	Finished = errors.New(Namespace + ": finished")

	// NotFinished is returned by ResultRaw when no terminal Item has been
	// latched yet. It indicates a programmer error: callers must check
	// HasResult before ResultRaw, or use NextRaw instead.
	NotFinished = errors.New(Namespace + ": stream not finished")

	// Empty names the "no Item currently available" condition of a polling
	// read. NextRaw does not return it; it reports that case with ok=false.
	Empty = errors.New(Namespace + ": no item available")

	// BrokenPipe is injected into the upstream half of a PipePair when the
	// downstream half finalizes first, so the upstream can unwind cleanly.
	BrokenPipe = errors.New(Namespace + ": broken pipe")

	// ErrInvalidState reports an operation the stream does not support
	// (e.g. Pipe on a stream that is not pipeable).
	ErrInvalidState = errors.New(Namespace + ": invalid state for this operation")

	// ErrTaskPanicked wraps a task's recovered panic.
	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")

	// ErrInvalidConfig reports a misconfigured Option set.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")

	// ErrInterrupted is thrown into Run's main stream when one of the
	// signals registered via WithSignals arrives.
	ErrInterrupted = errors.New(Namespace + ": interrupted by signal")
)

// TaskError wraps a task failure with correlation metadata (task ID and,
// for batch utilities, input index), kept as a distinct, exported type so
// callers can extract the metadata with errors.As instead of
// string-matching.
type TaskError struct {
	err   error
	id    interface{}
	index int
	hasID bool
}

// newTaskError wraps err with id/index correlation. Returns nil if err is nil.
func newTaskError(err error, id interface{}, index int) error {
	if err == nil {
		return nil
	}
	return &TaskError{err: err, id: id, index: index, hasID: id != nil}
}

func (e *TaskError) Error() string { return e.err.Error() }
func (e *TaskError) Unwrap() error { return e.err }

// TaskID returns the correlated task ID, if any.
func (e *TaskError) TaskID() (interface{}, bool) {
	if !e.hasID {
		return nil, false
	}
	return e.id, true
}

// TaskIndex returns the correlated task index.
func (e *TaskError) TaskIndex() int { return e.index }

func (e *TaskError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "task(index=%d,id=%v): %+v", e.index, e.id, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractTaskID returns the task ID carried by err, if any wrapped error in
// its chain is a *TaskError with one attached.
func ExtractTaskID(err error) (interface{}, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.TaskID()
	}
	return nil, false
}

// ExtractTaskIndex returns the task index carried by err, if any.
func ExtractTaskIndex(err error) (int, bool) {
	var te *TaskError
	if errors.As(err, &te) {
		return te.TaskIndex(), true
	}
	return 0, false
}

// joinErrors aggregates task failures the way RunAll/ForEach report them,
// using errorc.Join in place of a bare errors.Join call.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errorc.Join(errs...)
}
