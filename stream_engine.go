package coroflow

import (
	"context"
	"sync"
	"time"
)

// driveLoop keeps iterating cq until stop is closed, sleeping in short
// bounded increments between iterations unless woken by new work. Used by
// the streaming batch engines, which (unlike runBatch) don't know up front
// how many items they'll see.
func driveLoop(cq *CallQueue, stop <-chan struct{}) {
	notify := make(chan struct{}, 1)
	iterate, release := cq.Exclusive(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer release()

	for {
		iterate()
		select {
		case <-stop:
			iterate()
			return
		case <-notify:
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// runStreamEngine is the shared engine behind RunStream/MapStream/
// ForEachStream: it reads items from in, runs fn for each as its own Task
// offloading onto the batch thread pool, and emits outcomes on the returned
// channels. With WithPreserveOrder, outcomes are replayed through a
// reorderer before being forwarded; WithStopOnError cancels intake and
// in-flight work via an errorForwarder after the first failure. Both
// channels are closed once in has closed (or the context is done) and
// every launched item has reported.
func runStreamEngine[T, R any](ctx context.Context, in <-chan T, fn func(context.Context, T) (R, error), cfg batchConfig) (<-chan R, <-chan error) {
	cq := NewCallQueue()
	cq.setThreadPool(newThreadPool(cfg.concurrency == 0, cfg.concurrency))

	runCtx, cancel := context.WithCancel(ctx)

	results := make(chan R, 256)
	errorsOut := make(chan error, 256)
	internalErrs := make(chan error, 256)
	closeCh := make(chan struct{})
	var sendWG sync.WaitGroup

	if cfg.stopOnError {
		// cancel-on-first-error semantics: forward exactly one failure and
		// stop remaining in-flight work.
		fwd := newErrorForwarder(internalErrs, errorsOut, closeCh, cancel, &sendWG)
		go fwd.run()
	} else {
		// no cancellation: every failure is forwarded as it arrives.
		go func() {
			for {
				select {
				case e := <-internalErrs:
					errorsOut <- e
				case <-closeCh:
					for {
						select {
						case e := <-internalErrs:
							errorsOut <- e
						default:
							return
						}
					}
				}
			}
		}()
	}

	var events chan completionEvent[R]
	var reordered chan R
	if cfg.preserveOrder {
		events = make(chan completionEvent[R], 256)
		reordered = make(chan R, 256)
		go func() {
			newReorderer(events, reordered).run(runCtx)
			close(reordered)
		}()
	}

	stop := make(chan struct{})
	go driveLoop(cq, stop)

	var inflight sync.WaitGroup

	go func() {
		idx := 0
	intake:
		for {
			select {
			case <-runCtx.Done():
				break intake
			case item, ok := <-in:
				if !ok {
					break intake
				}
				myIdx := idx
				idx++
				inflight.Add(1)
				NewTask(runCtx, cq, func(tctx context.Context, inner *Inner) error {
					defer inflight.Done()
					values, err := inner.Await(inner.Thread(func(wctx context.Context) (interface{}, error) {
						return fn(wctx, item)
					}))
					if err != nil {
						if cfg.errorTagging {
							err = newTaskError(err, nil, myIdx)
						}
						if cfg.preserveOrder {
							events <- completionEvent[R]{idx: myIdx}
						}
						internalErrs <- err
						return inner.Finish()
					}
					var v R
					if len(values) > 0 {
						if typed, ok := values[0].(R); ok {
							v = typed
						}
					}
					if cfg.preserveOrder {
						events <- completionEvent[R]{idx: myIdx, val: v, present: true}
					} else {
						results <- v
					}
					return inner.Finish()
				}).Start()
			}
		}

		inflight.Wait()
		close(stop)
		close(closeCh)
		sendWG.Wait()
		cancel()

		if cfg.preserveOrder {
			close(events)
			for v := range reordered {
				results <- v
			}
		}
		close(results)
		close(errorsOut)
	}()

	return results, errorsOut
}
