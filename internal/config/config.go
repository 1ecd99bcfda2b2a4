// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New returns a Config filled with defaults.
// - Load layers a YAML file and environment variables on top.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration for both the API server and the
// command line client.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the repository: memory, redis or postgres.
	StoreBackend string `koanf:"store_backend"`

	// RedisURL is used by the redis backend, e.g. "redis://localhost:6379/0".
	RedisURL string `koanf:"redis_url"`

	// DatabaseURL is used by the postgres backend.
	DatabaseURL string `koanf:"database_url"`

	// JWTSecret verifies HS256 bearer tokens. The server refuses to start
	// without one unless AuthInsecure is set.
	JWTSecret string `koanf:"jwt_secret"`

	// AuthInsecure lets the server decode bearer tokens without checking
	// their signature. Local development only.
	AuthInsecure bool `koanf:"auth_insecure"`

	// RedocJSPath optionally points at a local ReDoc bundle served with the
	// API docs instead of the pinned CDN copy.
	RedocJSPath string `koanf:"redoc_js_path"`

	// RemoteBaseURL is the project API the client talks to.
	RemoteBaseURL string `koanf:"remote_base_url"`

	// RemoteTimeoutMS bounds each client request.
	RemoteTimeoutMS int `koanf:"remote_timeout_ms"`

	// RemoteRPS caps outbound client requests per second. Zero disables the cap.
	RemoteRPS float64 `koanf:"remote_rps"`

	// AuthToken is the bearer token the client sends.
	AuthToken string `koanf:"auth_token"`

	// SessionCheckIntervalS is the period of the session liveness check.
	SessionCheckIntervalS int `koanf:"session_check_interval_s"`

	// SyncQueueSize bounds the pending refetch tasks.
	SyncQueueSize int `koanf:"sync_queue_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		StoreBackend:          "memory",
		RemoteBaseURL:         "http://localhost:9080",
		RemoteTimeoutMS:       10_000,
		RemoteRPS:             5,
		SessionCheckIntervalS: 300,
		SyncQueueSize:         64,
	}
}

// RemoteTimeout returns RemoteTimeoutMS as a duration.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutMS) * time.Millisecond
}

// SessionCheckInterval returns SessionCheckIntervalS as a duration.
func (c *Config) SessionCheckInterval() time.Duration {
	return time.Duration(c.SessionCheckIntervalS) * time.Second
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RemoteTimeoutMS <= 0:
		return fmt.Errorf("%w: remote_timeout_ms must be positive", ErrInvalidConfig)
	case c.RemoteRPS < 0:
		return fmt.Errorf("%w: remote_rps must not be negative", ErrInvalidConfig)
	case c.SessionCheckIntervalS <= 0:
		return fmt.Errorf("%w: session_check_interval_s must be positive", ErrInvalidConfig)
	case c.SyncQueueSize <= 0:
		return fmt.Errorf("%w: sync_queue_size must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StoreBackend) {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for the redis backend", ErrInvalidConfig)
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}

// ValidateServer runs Validate plus the checks that only apply to the API
// server.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.JWTSecret == "" && !c.AuthInsecure {
		return fmt.Errorf("%w: jwt_secret is required unless auth_insecure is set", ErrInvalidConfig)
	}
	return nil
}
