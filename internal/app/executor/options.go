package executor

import (
	"time"

	"github.com/brian-reel/airtable-heroku/pkg/logger"
)

// Option applies a configuration option to the Executor.
type Option func(*Executor)

// WithDelay sets the minimum spacing between writes. Zero disables spacing.
func WithDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithJob labels metrics with the sync job name.
func WithJob(name string) Option {
	return func(e *Executor) {
		if name != "" {
			e.job = name
		}
	}
}

// WithLogger sets a custom logger for the executor.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}
