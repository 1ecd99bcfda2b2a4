// Package worker runs the refetch loop that rebuilds the local project cache
// from the remote store.
package worker

import (
	"github.com/okian/househunt/pkg/logger"
)

// Option applies a configuration option to the RefetchWorker.
type Option func(*RefetchWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RefetchWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RefetchWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
