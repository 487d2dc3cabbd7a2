package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes outside the apperr taxonomy.
const (
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeTooLarge       = "request_too_large"
)

// Sentinel errors for the server lifecycle.
var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("api: server already started")

	// ErrBindFailed is returned when the listener cannot be opened.
	ErrBindFailed = errors.New("api: bind failed")

	// ErrInvalidRoute is the panic value of a registration whose pattern
	// the router rejects.
	ErrInvalidRoute = fmt.Errorf("api: route pattern %w", apperr.ErrInvalidArgument)

	// ErrInvalidBody is returned by DecodeJSON for malformed request bodies.
	ErrInvalidBody = fmt.Errorf("api: request body %w", apperr.ErrInvalidArgument)
)

// WriteJSON writes a JSON response with the given status code and payload.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps err onto the apperr taxonomy and writes it as a
// structured error, so a failed lookup answers 404 and a duplicate 409.
func WriteError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, err.Error())
		return
	}
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	writeError(w, status, apperr.Code(err), message)
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}
