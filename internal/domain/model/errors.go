package model

import (
	"fmt"

	"github.com/okian/househunt/internal/domain/criteria"
)

// ErrValidation is the kind shared by all client-side validation failures.
var ErrValidation = criteria.ErrValidation

// Validation errors raised before any request is sent.
var (
	ErrEmptyAddress     = fmt.Errorf("%w: address must not be empty", ErrValidation)
	ErrEmptyTitle       = fmt.Errorf("%w: title must not be empty", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: description must not be empty", ErrValidation)
	ErrEmptySchema      = fmt.Errorf("%w: at least one criterion group is required", ErrValidation)
)
