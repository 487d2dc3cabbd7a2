package rfsocket

import (
	"fmt"
	"strings"
)

// BinaryState is the logical state of a two-state output.
type BinaryState int

// Binary states. Low is off.
const (
	Low BinaryState = iota
	High
)

// String returns "low" or "high".
func (s BinaryState) String() string {
	if s == High {
		return "high"
	}
	return "low"
}

// Invert returns the opposite state.
func (s BinaryState) Invert() BinaryState {
	if s == High {
		return Low
	}
	return High
}

// ParseBinaryState accepts "on"/"off", "high"/"low" and "1"/"0".
func ParseBinaryState(text string) (BinaryState, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "on", "high", "1", "true":
		return High, nil
	case "off", "low", "0", "false":
		return Low, nil
	default:
		return Low, fmt.Errorf("%w: %q", ErrInvalidState, text)
	}
}
