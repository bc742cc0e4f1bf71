package coroflow

import (
	"os"
	"time"

	"github.com/flowrt/coroflow/metrics"
	"github.com/sirupsen/logrus"
)

// runConfig holds Run's configuration, assembled by applying a chain of
// Option values over defaultRunConfig, generalized from a worker-pool
// config shape to the Run driver's config.
type runConfig struct {
	signals      []os.Signal
	logger       *logrus.Logger
	metrics      metrics.Provider
	pollInterval time.Duration

	threadPoolDynamic  bool
	threadPoolCapacity uint
}

// defaultRunConfig centralizes Run's defaults.
func defaultRunConfig() runConfig {
	return runConfig{
		signals:            nil,
		logger:             defaultLogger(),
		metrics:            metrics.NewNoopProvider(),
		pollInterval:       500 * time.Millisecond,
		threadPoolDynamic:  true,
		threadPoolCapacity: 0,
	}
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}
