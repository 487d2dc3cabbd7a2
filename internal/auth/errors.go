package auth

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidHash is returned for a password hash that is not an
	// Argon2id PHC string.
	ErrInvalidHash = fmt.Errorf("auth: password hash %w", apperr.ErrInvalidArgument)

	// ErrDuplicateUser is returned when a username is configured twice.
	ErrDuplicateUser = fmt.Errorf("auth: user %w", apperr.ErrConflict)
)
