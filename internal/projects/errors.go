package projects

import (
	"errors"
	"fmt"

	"github.com/okian/househunt/internal/domain/model"
)

// Sentinel errors for the sync controller.
var (
	ErrEmptyProjectID = fmt.Errorf("%w: project id must not be empty", model.ErrValidation)
	ErrAlreadyMounted = errors.New("controller already mounted")
)
