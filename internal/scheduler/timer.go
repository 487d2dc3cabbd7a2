package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultResolution is the dispatch loop tick used when none is configured.
const DefaultResolution = 100 * time.Millisecond

// Logger defines the logging interface used by the timer.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

// Option configures a Timer.
type Option func(*Timer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Timer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithResolution sets how often Run checks for due recurrences.
func WithResolution(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.resolution = d
		}
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(l Logger) Option {
	return func(t *Timer) {
		if l != nil {
			t.logger = l
		}
	}
}

// Timer dispatches recurring actions.
//
// Thread Safety: Every, Tick and Cancel are safe for concurrent use. Only
// one goroutine should call Run.
type Timer struct {
	now        func() time.Time
	resolution time.Duration
	logger     Logger

	mu          sync.Mutex
	recurrences []*Recurrence
}

// Recurrence is the handle for one scheduled action.
type Recurrence struct {
	period    time.Duration
	action    func()
	next      time.Time // guarded by Timer.mu
	cancelled atomic.Bool
}

// New creates a Timer. No action fires until Run or Tick is called.
func New(opts ...Option) *Timer {
	t := &Timer{
		now:        time.Now,
		resolution: DefaultResolution,
		logger:     noopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Every schedules action to run once per period, starting one period from
// now.
func (t *Timer) Every(period time.Duration, action func()) (*Recurrence, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPeriod, period)
	}
	if action == nil {
		return nil, ErrNilAction
	}

	r := &Recurrence{period: period, action: action}
	t.mu.Lock()
	r.next = t.now().Add(period)
	t.recurrences = append(t.recurrences, r)
	t.mu.Unlock()
	return r, nil
}

// Period returns the recurrence interval.
func (r *Recurrence) Period() time.Duration { return r.period }

// Cancel stops future firings. It does not interrupt a running action.
func (r *Recurrence) Cancel() { r.cancelled.Store(true) }

// Len returns the number of active recurrences.
func (t *Timer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.recurrences {
		if !r.cancelled.Load() {
			n++
		}
	}
	return n
}

// Tick fires every recurrence due at now, in registration order, and
// returns how many actions ran.
func (t *Timer) Tick(now time.Time) int {
	t.mu.Lock()
	due := make([]*Recurrence, 0, len(t.recurrences))
	active := t.recurrences[:0]
	for _, r := range t.recurrences {
		if r.cancelled.Load() {
			continue
		}
		active = append(active, r)
		if now.Before(r.next) {
			continue
		}
		r.next = r.next.Add(r.period)
		if !r.next.After(now) {
			r.next = now.Add(r.period)
		}
		due = append(due, r)
	}
	clear(t.recurrences[len(active):])
	t.recurrences = active
	t.mu.Unlock()

	for _, r := range due {
		t.fire(r)
	}
	return len(due)
}

func (t *Timer) fire(r *Recurrence) {
	defer func() {
		if p := recover(); p != nil {
			t.logger.Error("scheduled action panicked", "period", r.period, "panic", p)
		}
	}()
	r.action()
}

// Run dispatches due recurrences until ctx is cancelled.
func (t *Timer) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Tick(t.now())
		}
	}
}
