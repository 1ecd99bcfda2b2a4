package queue

import "errors"

// Sentinel errors returned by Push.
var (
	ErrClosed = errors.New("sync queue closed")
	ErrFull   = errors.New("sync queue full")
)
