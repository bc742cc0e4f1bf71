package coroflow

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/flowrt/coroflow/metrics"
	"github.com/google/uuid"
)

// Run drives cq to completion: it repeatedly iterates the call queue until
// main has a latched result, sleeping in bounded pollInterval increments
// (or until new work wakes it) in between. If signals were registered via
// WithSignals, receiving one throws ErrInterrupted into main so it can
// unwind cleanly instead of the process dying uncaught. A thunk that panics
// mid-drain is recovered and turned into main's own Throw, rather than
// crashing the driving goroutine.
//
// Grounded in idiokit/threado.py's run(), including its exclusive/wake
// call-queue integration and bounded polling; structured logrus logging
// around the run boundary is generalized from worker-pool lifecycle
// logging to this single top-level driver.
func Run(main Stream, cq *CallQueue, opts ...Option) (interface{}, error) {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cq.setThreadPool(newThreadPool(cfg.threadPoolDynamic, cfg.threadPoolCapacity))

	runID := uuid.New()
	log := cfg.logger.WithField("run_id", runID.String())

	if _, isNoop := cfg.metrics.(metrics.NoopProvider); !isNoop {
		cq.setHooks(newMetricsTaskHooks(cfg.metrics))

		depthStop := make(chan struct{})
		defer close(depthStop)
		go queueDepthSampler(cq, cfg.metrics.UpDownCounter("coroflow_callqueue_depth"), depthStop)
	}

	if len(cfg.signals) > 0 {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, cfg.signals...)
		stop := make(chan struct{})
		defer func() {
			signal.Stop(sigCh)
			close(stop)
		}()

		go func() {
			select {
			case <-sigCh:
				log.Info("received signal, stopping main")
				main.Throw(ErrInterrupted)
			case <-stop:
			}
		}()
	}

	log.Debug("run starting")
	defer log.Debug("run finished")

	notify := make(chan struct{}, 1)
	rawIterate, release := cq.Exclusive(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer release()

	// A thunk panicking mid-drain (e.g. a user message/finish callback
	// invoked from inside a task's own thunk) would otherwise propagate out
	// of iterate() and crash this goroutine; recovered here and turned into
	// main's own failure instead.
	iterate := func() {
		defer func() {
			if r := recover(); r != nil {
				main.Throw(fmt.Errorf("%w: %v", ErrTaskPanicked, r))
			}
		}()
		rawIterate()
	}

	for !main.HasResult() {
		iterate()
		if !main.HasResult() {
			select {
			case <-notify:
			case <-time.After(cfg.pollInterval):
			}
		}
	}

	item, err := main.ResultRaw()
	if err != nil {
		return nil, err
	}
	if item.Throw {
		log.WithError(item.Err).Warn("main finished with a failure")
		return nil, item.Err
	}
	log.Debug("main finished successfully")
	return peelArgs(item.Values), nil
}
