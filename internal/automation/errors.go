package automation

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

// Domain errors for the automation package.
var (
	// ErrNoTargets is returned when a window is built without targets.
	ErrNoTargets = fmt.Errorf("automation: targets %w", apperr.ErrInvalidArgument)

	// ErrInvalidWindow is returned for bounds outside [0, 24h).
	ErrInvalidWindow = fmt.Errorf("automation: window %w", apperr.ErrInvalidArgument)

	// ErrAlreadyScheduled is returned when Schedule is called twice.
	ErrAlreadyScheduled = fmt.Errorf("automation: %w: already scheduled", apperr.ErrConflict)
)
