// Package session supplies bearer credentials and tracks whether the current
// session is still live. Sign-in itself happens elsewhere.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/okian/househunt/pkg/logger"
	"github.com/okian/househunt/pkg/metrics"
)

const defaultCheckInterval = 5 * time.Minute

// ErrExpired is returned by checkers for a credential past its expiry.
var ErrExpired = errors.New("session expired")

// TokenSource supplies the current bearer credential, if any.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Static is a fixed credential. The empty string means absent.
type Static string

// Token returns the credential.
func (s Static) Token(context.Context) (string, bool) {
	t := strings.TrimSpace(string(s))
	return t, t != ""
}

// Checker validates a credential.
type Checker interface {
	Check(ctx context.Context, token string) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context, token string) error

// Check calls f.
func (f CheckFunc) Check(ctx context.Context, token string) error { return f(ctx, token) }

// ExpiryChecker reads the exp claim of a JWT without verifying its
// signature.
type ExpiryChecker struct {
	Now func() time.Time
}

// Check fails for malformed tokens and tokens past exp. Tokens without exp
// are accepted.
func (e ExpiryChecker) Check(_ context.Context, token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("read exp: %w", err)
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	if exp != nil && !now().Before(exp.Time) {
		return ErrExpired
	}
	return nil
}

// Monitor periodically checks the wrapped source's credential. Once a check
// fails, Token reports absent until a later check succeeds.
type Monitor struct {
	source    TokenSource
	checker   Checker
	interval  time.Duration
	onExpired func()
	logger    logger.Logger

	live    atomic.Bool
	checked atomic.Bool
	mu      sync.Mutex
}

// NewMonitor wraps source.
func NewMonitor(source TokenSource, opts ...Option) *Monitor {
	m := &Monitor{
		source:   source,
		checker:  ExpiryChecker{},
		interval: defaultCheckInterval,
		logger:   logger.GetOrNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("session")
	return m
}

// Token returns the wrapped credential while the session is live.
func (m *Monitor) Token(ctx context.Context) (string, bool) {
	if m.checked.Load() && !m.live.Load() {
		return "", false
	}
	return m.source.Token(ctx)
}

// Authenticated reports the result of the last check. Before the first check
// it reports whether a credential is present at all.
func (m *Monitor) Authenticated() bool {
	if m.checked.Load() {
		return m.live.Load()
	}
	_, ok := m.source.Token(context.Background())
	return ok
}

// Check runs one liveness check now and returns its result.
func (m *Monitor) Check(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok := true
	token, present := m.source.Token(ctx)
	if !present {
		ok = false
	} else if err := m.checker.Check(ctx, token); err != nil {
		ok = false
		m.logger.Warn(ctx, "session check failed", logger.Error(err))
	}

	wasLive := !m.checked.Load() || m.live.Load()
	m.live.Store(ok)
	m.checked.Store(true)
	metrics.RecordSessionCheck(ok)

	if wasLive && !ok {
		m.logger.Info(ctx, "session expired")
		if m.onExpired != nil {
			m.onExpired()
		}
	}
	return ok
}

// Run checks immediately and then on every interval until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
