package coroflow

import "sync"

// CallQueue is the single-threaded FIFO that serializes every
// dispatcher-visible side effect: every Stream mutation in this package
// runs as a thunk drained from a CallQueue, whether the call originated on
// the owning goroutine or was handed over from a worker goroutine via Add.
//
// Shaped like a channel-fed dispatch loop paired with a worker pool, except
// the "worker pool" is gone (there is nothing to execute concurrently —
// that's the whole point of the call queue) and the loop instead drains a
// plain FIFO of thunks, grounded in idiokit/threado.py's callqueue module.
type CallQueue struct {
	mu      sync.Mutex
	pending []func()
	wake    func()

	pool *threadPool // lazily defaulted; see threadpool.go

	hooks taskHooks // lazily defaulted; see metrics.go
}

// NewCallQueue constructs an empty, unstarted CallQueue.
func NewCallQueue() *CallQueue {
	return &CallQueue{}
}

// Add appends fn to the queue. Safe to call from any goroutine, including
// from inside a thunk already running on the queue's own draining
// goroutine (the new thunk simply runs on a later drain). If an Exclusive
// region is active, its wake callback fires so a blocked dispatcher can
// notice the new work.
func (q *CallQueue) Add(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	wake := q.wake
	q.mu.Unlock()

	if wake != nil {
		wake()
	}
}

// Asap is an alias for Add, named for call sites that are explicitly
// handing work over from a worker-thread context (e.g. a thread-pool
// completion) rather than from ordinary same-queue code.
func (q *CallQueue) Asap(fn func()) {
	q.Add(fn)
}

// Iterate drains every thunk currently pending, in FIFO order, on the
// calling goroutine. A thunk that panics is not recovered here: the panic
// propagates straight out of Iterate to its caller. Run wraps its own
// iterate() calls in a recover that turns such a panic into main's Throw
// (see run.go), but a CallQueue driven directly (outside Run) has no such
// safety net and a panicking thunk crashes the driving goroutine.
func (q *CallQueue) Iterate() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
	}
}

// Exclusive installs wake as the callback invoked whenever Add observes new
// work, and returns an iterate function that drains the queue on the
// calling goroutine. The returned release function must be called when the
// exclusive region ends (restores wake to nil). Mirrors
// idiokit.threado.callqueue.exclusive's context-manager shape.
func (q *CallQueue) Exclusive(wake func()) (iterate func(), release func()) {
	q.mu.Lock()
	q.wake = wake
	q.mu.Unlock()

	return q.Iterate, func() {
		q.mu.Lock()
		q.wake = nil
		q.mu.Unlock()
	}
}

// Len reports the number of thunks currently queued. Exposed for metrics
// wiring (queue-depth gauge) only; not part of the core contract.
func (q *CallQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// setHooks installs the taskHooks every Task started against this queue
// picks up. Called once by Run with a metrics-backed implementation; queues
// not passed through Run keep the no-op default.
func (q *CallQueue) setHooks(h taskHooks) {
	q.mu.Lock()
	q.hooks = h
	q.mu.Unlock()
}

func (q *CallQueue) taskHooks() taskHooks {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.hooks == nil {
		return defaultTaskHooks
	}
	return q.hooks
}
