package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound       = errors.New("project not found")
	ErrInvalidRecord  = errors.New("invalid project record")
	ErrUnknownBackend = errors.New("unknown store backend")
)
