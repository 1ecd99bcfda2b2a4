package repository

import "time"

const defaultKeyPrefix = "househunt:"

type options struct {
	keyPrefix string
	now       func() time.Time
}

func newOptions(opts []Option) options {
	o := options{keyPrefix: defaultKeyPrefix, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a store backend.
type Option func(*options)

// WithKeyPrefix sets the key namespace used by the Redis backend.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
