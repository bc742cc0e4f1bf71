package coroflow

import (
	"os"
	"time"

	"github.com/flowrt/coroflow/metrics"
	"github.com/sirupsen/logrus"
)

// Option configures Run using the standard functional-options pattern,
// covering the Run driver's concerns: signal handling, logging, metrics,
// poll interval, and the Inner.Thread pool.
type Option func(*runConfig)

// WithSignals makes Run inject a failure into main when one of sigs is
// received, instead of the process terminating uncaught. Mirrors
// idiokit.threado.run's default SIGINT/SIGTERM handling, generalized to an
// arbitrary signal list.
func WithSignals(sigs ...os.Signal) Option {
	return func(c *runConfig) { c.signals = sigs }
}

// WithLogger overrides Run's structured logger (default: a logrus.Logger at
// InfoLevel writing to stderr).
func WithLogger(logger *logrus.Logger) Option {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches a metrics.Provider instrumenting call-queue depth,
// task start/finish counts, step latency, and active-task count. Default is
// metrics.NewNoopProvider(), which records nothing.
func WithMetrics(p metrics.Provider) Option {
	return func(c *runConfig) {
		if p != nil {
			c.metrics = p
		}
	}
}

// WithPollInterval overrides the bounded wait Run uses while the call queue
// is idle and no signal has arrived (default 500ms).
func WithPollInterval(d time.Duration) Option {
	return func(c *runConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithFixedThreadPool selects a fixed-size worker pool of capacity n for
// every Inner.Thread call made during this Run (must be > 0).
func WithFixedThreadPool(n uint) Option {
	return func(c *runConfig) {
		if n == 0 {
			panic("coroflow: WithFixedThreadPool requires n > 0")
		}
		c.threadPoolDynamic = false
		c.threadPoolCapacity = n
	}
}

// WithDynamicThreadPool selects an unbounded, sync.Pool-backed worker pool
// for Inner.Thread calls (the default).
func WithDynamicThreadPool() Option {
	return func(c *runConfig) {
		c.threadPoolDynamic = true
		c.threadPoolCapacity = 0
	}
}
