package actuator

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

// Domain errors for the actuator package.
var (
	// ErrDisabled is returned when a disabled actuator is commanded.
	ErrDisabled = fmt.Errorf("actuator: disabled: %w", apperr.ErrConflict)

	// ErrInvalidCommand is returned for commands other than on, off and toggle.
	ErrInvalidCommand = fmt.Errorf("actuator: command %w", apperr.ErrInvalidArgument)

	// ErrNoOutput is returned when a socket is built without an output.
	ErrNoOutput = fmt.Errorf("actuator: output %w", apperr.ErrInvalidArgument)
)
