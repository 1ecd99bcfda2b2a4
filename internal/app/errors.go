package service

import (
	"errors"
	"fmt"

	"github.com/okian/househunt/internal/adapters/repository"
)

// ErrInvalidInput is the kind shared by every rejected request body.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrEmptyTitle      = fmt.Errorf("%w: project title must not be empty", ErrInvalidInput)
	ErrEmptyCriteria   = fmt.Errorf("%w: project needs at least one criterion", ErrInvalidInput)
	ErrEmptyAddress    = fmt.Errorf("%w: entry address must not be empty", ErrInvalidInput)
	ErrEmptyProjectID  = fmt.Errorf("%w: projectId is required", ErrInvalidInput)
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("project belongs to another user")
	ErrNotFound        = repository.ErrNotFound
)
