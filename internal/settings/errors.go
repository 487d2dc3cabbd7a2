package settings

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

// Domain errors for the settings package.
var (
	// ErrKeyNotFound is returned when reading a key that was never set.
	ErrKeyNotFound = fmt.Errorf("settings: key %w", apperr.ErrNotFound)

	// ErrTypeMismatch is returned when a key holds a value of another type.
	ErrTypeMismatch = fmt.Errorf("settings: value %w", apperr.ErrTypeMismatch)

	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = fmt.Errorf("settings: key %w", apperr.ErrInvalidArgument)

	// ErrInvalidValue is returned for values without a type.
	ErrInvalidValue = fmt.Errorf("settings: value %w", apperr.ErrInvalidArgument)

	// ErrInvalidFormat is returned when a serialised snapshot cannot be parsed.
	ErrInvalidFormat = fmt.Errorf("settings: format %w", apperr.ErrInvalidArgument)
)
