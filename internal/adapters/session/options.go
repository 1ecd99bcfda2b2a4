package session

import (
	"time"

	"github.com/okian/househunt/pkg/logger"
)

// Option applies a configuration option to the Monitor.
type Option func(*Monitor)

// WithInterval sets the time between liveness checks.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithChecker replaces the default expiry check.
func WithChecker(c Checker) Option {
	return func(m *Monitor) {
		if c != nil {
			m.checker = c
		}
	}
}

// WithOnExpired registers a callback run once each time the session goes
// from live to expired.
func WithOnExpired(fn func()) Option {
	return func(m *Monitor) {
		m.onExpired = fn
	}
}

// WithLogger sets a custom logger for the monitor.
func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}
