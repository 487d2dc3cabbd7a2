package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"invalid", fmt.Errorf("settings: key %w", ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{"not found", fmt.Errorf("entity: %w", ErrNotFound), http.StatusNotFound, "not_found"},
		{"conflict", ErrConflict, http.StatusConflict, "conflict"},
		{"type mismatch", fmt.Errorf("x: %w", ErrTypeMismatch), http.StatusConflict, "type_mismatch"},
		{"ambiguous", ErrAmbiguous, http.StatusConflict, "ambiguous"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestHTTPStatus_Nil(t *testing.T) {
	if got := HTTPStatus(nil); got != http.StatusOK {
		t.Errorf("HTTPStatus(nil) = %d, want %d", got, http.StatusOK)
	}
}
