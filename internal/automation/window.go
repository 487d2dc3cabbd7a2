package automation

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// sinceMidnight returns the wall-clock offset of t into its local day.
func sinceMidnight(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}

// inWindow reports whether offset lies in [from, until), wrapping past
// midnight when until < from.
func inWindow(offset, from, until time.Duration) bool {
	switch {
	case from == until:
		return false
	case from < until:
		return offset >= from && offset < until
	default:
		return offset >= from || offset < until
	}
}

func validateBound(name string, d time.Duration) error {
	if d < 0 || d >= day {
		return fmt.Errorf("%w: %s %v is outside a day", ErrInvalidWindow, name, d)
	}
	return nil
}
