package worker

import (
	"time"

	"github.com/okian/reviewdesk/pkg/logger"
)

// Option applies a configuration option to the TickerWorker.
type Option func(*TickerWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *TickerWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithInterval sets the tick interval. Non-positive values are ignored.
func WithInterval(interval time.Duration) Option {
	return func(w *TickerWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *TickerWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
