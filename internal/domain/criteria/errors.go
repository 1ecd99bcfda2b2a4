package criteria

import (
	"errors"
	"fmt"
)

// ErrValidation is the kind shared by every client-side validation failure.
// Callers test for it with errors.Is before deciding whether a request may
// be sent at all.
var ErrValidation = errors.New("validation failed")

// Sentinel errors for schema authoring.
var (
	ErrEmptyCategory = fmt.Errorf("%w: category must not be empty", ErrValidation)
	ErrEmptyItem     = fmt.Errorf("%w: criterion item must not be empty", ErrValidation)
	ErrGroupNotFound = errors.New("criterion group not found")
	ErrIDExhausted   = errors.New("no unused criterion group id")
)
