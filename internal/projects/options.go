package projects

import (
	"github.com/okian/househunt/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithLogger sets a custom logger for the controller.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithQueueCapacity bounds the number of pending refetch tasks.
func WithQueueCapacity(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.queueCapacity = n
		}
	}
}

// WithStore shares an existing store.
func WithStore(s *Store) Option {
	return func(c *Controller) {
		if s != nil {
			c.store = s
		}
	}
}

// WithAuthenticator makes mutations fail fast with remote.ErrAuth while
// the session is not live.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Controller) {
		c.auth = a
	}
}
