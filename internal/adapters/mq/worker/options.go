package worker

import (
	"github.com/okian/momentum/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// withProcessedCounter points the worker at the pool's shared counter of
// committed races. Incremented atomically; read by the throughput gauge.
func withProcessedCounter(c *int64) Option {
	return func(w *InMemoryWorker) {
		w.processed = c
	}
}
