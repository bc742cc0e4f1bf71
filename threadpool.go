package coroflow

import (
	"context"
	"fmt"

	"github.com/flowrt/coroflow/pool"
)

// threadPool bounds how many ThreadFuncs run concurrently on their own
// goroutines. A fixed pool's Get blocks once capacity is exhausted, giving
// the semaphore-like behavior Inner.Thread needs; a dynamic pool never
// blocks. Built on pool.Pool (pool/pool.go, pool/fixed.go, pool/dynamic.go)
// as the token-acquisition primitive. Grounded in
// idiokit/threadpool.py's ThreadPool.
type threadPool struct {
	slots pool.Pool
}

func newThreadPool(dynamic bool, capacity uint) *threadPool {
	newFn := func() interface{} { return struct{}{} }
	if dynamic || capacity == 0 {
		return &threadPool{slots: pool.NewDynamic(newFn)}
	}
	return &threadPool{slots: pool.NewFixed(capacity, newFn)}
}

// setThreadPool installs the pool backing every Inner.Thread call made by
// tasks sharing this CallQueue. Called once by Run before driving.
func (q *CallQueue) setThreadPool(p *threadPool) {
	q.mu.Lock()
	q.pool = p
	q.mu.Unlock()
}

func (q *CallQueue) threadPool() *threadPool {
	q.mu.Lock()
	p := q.pool
	q.mu.Unlock()
	if p == nil {
		return defaultThreadPool
	}
	return p
}

// defaultThreadPool backs Inner.Thread for tasks run outside of Run (e.g.
// in unit tests that drive a CallQueue directly).
var defaultThreadPool = newThreadPool(true, 0)

// runOnThreadPool runs fn on a goroutine acquired from cq's thread pool and
// returns a Stream that finishes with fn's result, or throws its error.
func runOnThreadPool(ctx context.Context, cq *CallQueue, fn ThreadFunc) Stream {
	ch := NewChannel(cq)
	tp := cq.threadPool()

	go func() {
		token := tp.slots.Get()
		defer tp.slots.Put(token)

		value, err := callThreadFunc(ctx, fn)

		cq.Asap(func() {
			if err != nil {
				ch.Throw(err)
				return
			}
			if value == nil {
				ch.Finish()
				return
			}
			ch.Finish(value)
		})
	}()

	return ch
}

func callThreadFunc(ctx context.Context, fn ThreadFunc) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return fn(ctx)
}
