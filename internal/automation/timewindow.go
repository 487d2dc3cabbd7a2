package automation

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/scheduler"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

// TimeWindowKind is the entity kind of a time window.
const TimeWindowKind entity.Kind = "TimeWindow"

// DefaultPeriod is how often a window is evaluated.
const DefaultPeriod = time.Minute

// Source is the command source automations report to targets.
const Source = "automation"

// Setting keys of a time window.
const (
	SettingIsEnabled = "IsEnabled"
	SettingFrom      = "From"
	SettingUntil     = "Until"
)

// Target is a binary actuator an automation drives.
type Target interface {
	ID() entity.ActuatorID
	TurnOn(source string) error
	TurnOff(source string) error
}

// Scheduler is the part of scheduler.Timer a TimeWindow needs.
type Scheduler interface {
	Every(period time.Duration, action func()) (*scheduler.Recurrence, error)
}

// Logger defines the logging interface used by automations.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Fired is delivered to observers when a window switches its targets.
type Fired struct {
	AutomationID entity.AutomationID
	On           bool
	Targets      int
	Failed       int
}

// Option configures a TimeWindow.
type Option func(*TimeWindow)

// WithWindow sets the default bounds used until persisted settings load.
func WithWindow(from, until time.Duration) Option {
	return func(w *TimeWindow) {
		w.from = from
		w.until = until
	}
}

// WithPeriod overrides DefaultPeriod.
func WithPeriod(d time.Duration) Option {
	return func(w *TimeWindow) {
		if d > 0 {
			w.period = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(w *TimeWindow) { w.now = now }
}

// WithSettingsRepository persists the window's settings.
func WithSettingsRepository(repo settings.Repository) Option {
	return func(w *TimeWindow) { w.repo = repo }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(w *TimeWindow) {
		if l != nil {
			w.logger = l
		}
	}
}

// TimeWindow keeps target actuators on during a daily window.
type TimeWindow struct {
	id      entity.AutomationID
	targets []Target
	period  time.Duration
	now     func() time.Time
	store   *settings.Store
	repo    settings.Repository
	logger  Logger

	from, until time.Duration // defaults only

	mu         sync.Mutex
	last       *bool // last applied evaluation; nil forces the next one
	recurrence *scheduler.Recurrence
	observers  []func(Fired)
}

// NewTimeWindow creates a window over targets.
func NewTimeWindow(id entity.AutomationID, targets []Target, opts ...Option) (*TimeWindow, error) {
	if id == "" {
		return nil, entity.ErrInvalidID
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTargets, id)
	}

	w := &TimeWindow{
		id:      id,
		targets: append([]Target(nil), targets...),
		period:  DefaultPeriod,
		now:     time.Now,
		store:   settings.NewStore("automation/" + string(id)),
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := validateBound(SettingFrom, w.from); err != nil {
		return nil, err
	}
	if err := validateBound(SettingUntil, w.until); err != nil {
		return nil, err
	}

	//nolint:errcheck // Keys are non-empty constants; Default cannot fail
	w.store.Default(SettingIsEnabled, settings.Boolean(true))
	//nolint:errcheck // Keys are non-empty constants; Default cannot fail
	w.store.Default(SettingFrom, settings.Duration(w.from))
	//nolint:errcheck // Keys are non-empty constants; Default cannot fail
	w.store.Default(SettingUntil, settings.Duration(w.until))

	// Any settings change re-arms the next evaluation.
	w.store.OnChange(func(settings.Change) { w.reset() })
	return w, nil
}

// ID returns the automation identifier.
func (w *TimeWindow) ID() entity.AutomationID { return w.id }

// Kind returns "TimeWindow".
func (w *TimeWindow) Kind() entity.Kind { return TimeWindowKind }

// Period returns the evaluation period.
func (w *TimeWindow) Period() time.Duration { return w.period }

// Settings returns the window's settings store.
func (w *TimeWindow) Settings() *settings.Store { return w.store }

// Targets returns the target identifiers.
func (w *TimeWindow) Targets() []entity.ActuatorID {
	out := make([]entity.ActuatorID, len(w.targets))
	for i, t := range w.targets {
		out[i] = t.ID()
	}
	return out
}

// LoadSettings hydrates the settings from the repository and enables
// autosave. Without a repository the defaults stay in effect.
func (w *TimeWindow) LoadSettings(ctx context.Context) error {
	if w.repo == nil {
		return nil
	}
	return settings.Bind(ctx, w.store, w.repo, w.logger)
}

// OnFired registers an observer called after the window switches targets.
func (w *TimeWindow) OnFired(fn func(Fired)) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.observers = append(w.observers, fn)
	w.mu.Unlock()
}

// Schedule registers Evaluate on the timer every period.
func (w *TimeWindow) Schedule(sched Scheduler) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.recurrence != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyScheduled, w.id)
	}
	rec, err := sched.Every(w.period, w.Evaluate)
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", w.id, err)
	}
	w.recurrence = rec
	return nil
}

// Stop cancels the scheduled evaluation.
func (w *TimeWindow) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.recurrence != nil {
		w.recurrence.Cancel()
		w.recurrence = nil
	}
}

// Active reports whether now lies inside the configured window.
func (w *TimeWindow) Active() bool {
	from, until := w.bounds()
	return inWindow(sinceMidnight(w.now()), from, until)
}

// Evaluate applies the window if its verdict changed since the last
// evaluation. A disabled window does nothing and re-arms, so enabling it
// applies the current verdict at the next evaluation.
func (w *TimeWindow) Evaluate() {
	if !w.enabled() {
		w.reset()
		return
	}
	inside := w.Active()

	w.mu.Lock()
	if w.last != nil && *w.last == inside {
		w.mu.Unlock()
		return
	}
	w.last = &inside
	observers := make([]func(Fired), len(w.observers))
	copy(observers, w.observers)
	w.mu.Unlock()

	fired := Fired{AutomationID: w.id, On: inside, Targets: len(w.targets)}
	for _, t := range w.targets {
		var err error
		if inside {
			err = t.TurnOn(Source)
		} else {
			err = t.TurnOff(Source)
		}
		if err != nil {
			fired.Failed++
			w.logger.Warn("automation target failed",
				"automation_id", w.id,
				"actuator_id", t.ID(),
				"error", err,
			)
		}
	}
	w.logger.Info("automation fired", "automation_id", w.id, "on", inside, "targets", len(w.targets))

	for _, fn := range observers {
		fn(fired)
	}
}

func (w *TimeWindow) reset() {
	w.mu.Lock()
	w.last = nil
	w.mu.Unlock()
}

func (w *TimeWindow) enabled() bool {
	on, err := w.store.GetBoolean(SettingIsEnabled)
	return err != nil || on
}

// bounds reads From and Until, falling back to the construction defaults
// when a persisted value is missing, mistyped or outside a day.
func (w *TimeWindow) bounds() (time.Duration, time.Duration) {
	from, err := w.store.GetTimeSpan(SettingFrom)
	if err != nil || validateBound(SettingFrom, from) != nil {
		from = w.from
	}
	until, err := w.store.GetTimeSpan(SettingUntil)
	if err != nil || validateBound(SettingUntil, until) != nil {
		until = w.until
	}
	return from, until
}

// Status is the API representation of a time window.
type Status struct {
	ID      entity.AutomationID `json:"id"`
	Kind    entity.Kind         `json:"kind"`
	Enabled bool                `json:"enabled"`
	From    string              `json:"from"`
	Until   string              `json:"until"`
	Active  bool                `json:"active"`
	Targets []entity.ActuatorID `json:"targets"`
}

// ExposeToAPI registers GET /automations/{id} and the settings endpoints.
func (w *TimeWindow) ExposeToAPI(router entity.Router) {
	base := "/automations/" + string(w.id)
	router.Get(base, func(rw http.ResponseWriter, _ *http.Request) {
		from, until := w.bounds()
		api.WriteJSON(rw, http.StatusOK, Status{
			ID:      w.id,
			Kind:    TimeWindowKind,
			Enabled: w.enabled(),
			From:    settings.FormatDuration(from),
			Until:   settings.FormatDuration(until),
			Active:  w.Active(),
			Targets: w.Targets(),
		})
	})
	api.ExposeSettings(router, base, w.store)
}
