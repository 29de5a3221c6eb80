package worker

import (
	"time"

	"github.com/okian/acolyte/pkg/logger"
)

// Option applies a configuration option to the BatchWorker.
type Option func(*BatchWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *BatchWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *BatchWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithBatchSize caps the messages per batch.
func WithBatchSize(n int) Option {
	return func(w *BatchWorker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithBatchWindow sets how long a batch waits to fill after its first message.
func WithBatchWindow(d time.Duration) Option {
	return func(w *BatchWorker) {
		if d > 0 {
			w.batchWindow = d
		}
	}
}

// WithMaxReceiveCount sets the deliveries a message gets before it is dead.
func WithMaxReceiveCount(n int) Option {
	return func(w *BatchWorker) {
		if n > 0 {
			w.maxReceiveCount = n
		}
	}
}

// WithInvocationTimeout sets the deadline each batch handler call runs under.
func WithInvocationTimeout(d time.Duration) Option {
	return func(w *BatchWorker) {
		if d > 0 {
			w.invocationTimeout = d
		}
	}
}

// WithFunctionName names the emulated function in the invocation context.
func WithFunctionName(name string) Option {
	return func(w *BatchWorker) {
		if name != "" {
			w.functionName = name
		}
	}
}
