package scheduler

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

// Domain errors for the scheduler package.
var (
	// ErrInvalidPeriod is returned for zero or negative periods.
	ErrInvalidPeriod = fmt.Errorf("scheduler: period %w", apperr.ErrInvalidArgument)

	// ErrNilAction is returned when Every is called without an action.
	ErrNilAction = fmt.Errorf("scheduler: action %w", apperr.ErrInvalidArgument)
)
