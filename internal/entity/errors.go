package entity

import (
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

// Domain errors for the entity package.
var (
	// ErrNotFound is returned when no entry exists for an identifier or kind.
	ErrNotFound = fmt.Errorf("entity: %w", apperr.ErrNotFound)

	// ErrConflict is returned when AddUnique meets an existing identifier.
	ErrConflict = fmt.Errorf("entity: identifier %w", apperr.ErrConflict)

	// ErrTypeMismatch is returned when an entry exists but is of another kind.
	ErrTypeMismatch = fmt.Errorf("entity: kind %w", apperr.ErrTypeMismatch)

	// ErrAmbiguous is returned when a kind-only lookup matches several entries.
	ErrAmbiguous = fmt.Errorf("entity: lookup %w", apperr.ErrAmbiguous)

	// ErrInvalidID is returned for empty identifiers.
	ErrInvalidID = fmt.Errorf("entity: identifier %w", apperr.ErrInvalidArgument)

	// ErrNilEntity is returned when registering a nil entity.
	ErrNilEntity = fmt.Errorf("entity: nil entity: %w", apperr.ErrInvalidArgument)
)
