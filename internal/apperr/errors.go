// Package apperr defines the error taxonomy shared by every Gray Logic
// Controller package.
//
// Packages declare their own domain errors wrapping one of these sentinels,
// so callers can branch on the category without knowing the package:
//
//	var ErrKeyNotFound = fmt.Errorf("settings: key %w", apperr.ErrNotFound)
//
//	if errors.Is(err, apperr.ErrNotFound) {
//	    // 404
//	}
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidArgument is returned for nil, empty or out-of-range input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a lookup by identifier or key misses.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for duplicate unique identifiers or registrations.
	ErrConflict = errors.New("conflict")

	// ErrTypeMismatch is returned when a value exists under a different type or kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrAmbiguous is returned when a kind-only lookup matches more than one entry.
	ErrAmbiguous = errors.New("ambiguous")
)

// HTTPStatus maps an error to the HTTP status code an API caller should see.
// Errors outside the taxonomy map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrTypeMismatch),
		errors.Is(err, ErrAmbiguous):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine-readable code for the error category.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, ErrAmbiguous):
		return "ambiguous"
	default:
		return "internal_error"
	}
}
