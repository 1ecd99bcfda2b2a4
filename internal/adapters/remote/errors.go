package remote

import (
	"errors"
	"fmt"
)

// Error kinds returned by the client. Callers test with errors.Is.
var (
	ErrAuth      = errors.New("authentication required")
	ErrTransport = errors.New("remote request failed")
	ErrDataShape = errors.New("unexpected payload shape")
)

// StatusError is a non-2xx response. It unwraps to ErrAuth for 401 and 403
// and to ErrTransport otherwise.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return ErrAuth
	}
	return ErrTransport
}
