package rfsocket

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

// Domain errors for the rfsocket package.
var (
	// ErrPortNotFound is returned when addressing an unregistered port.
	ErrPortNotFound = fmt.Errorf("rfsocket: port %w", apperr.ErrNotFound)

	// ErrPortExists is returned when registering a port index twice.
	ErrPortExists = fmt.Errorf("rfsocket: port %w", apperr.ErrConflict)

	// ErrInvalidPort is returned for negative port indices.
	ErrInvalidPort = fmt.Errorf("rfsocket: port index %w", apperr.ErrInvalidArgument)

	// ErrEmptySequence is returned when a code sequence holds no codes.
	ErrEmptySequence = fmt.Errorf("rfsocket: code sequence %w", apperr.ErrInvalidArgument)

	// ErrInvalidState is returned for unknown binary states.
	ErrInvalidState = fmt.Errorf("rfsocket: state %w", apperr.ErrInvalidArgument)

	// ErrMissingDependency is returned when a controller is built without a
	// transmitter or scheduler.
	ErrMissingDependency = fmt.Errorf("rfsocket: dependency %w", apperr.ErrInvalidArgument)
)
