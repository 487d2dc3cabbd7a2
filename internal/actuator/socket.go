package actuator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/rfsocket"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

// SocketKind is the entity kind of a remote socket.
const SocketKind entity.Kind = "Socket"

// Setting keys of a socket.
const (
	SettingIsEnabled = "IsEnabled"
	SettingCaption   = "Caption"
)

// Command sources reported in state changes.
const (
	SourceAPI        = "api"
	SourceMQTT       = "mqtt"
	SourceAutomation = "automation"
)

// BinaryOutput is the port a socket drives; *rfsocket.Port satisfies it.
type BinaryOutput interface {
	Write(state rfsocket.BinaryState) error
	Read() (rfsocket.BinaryState, error)
}

// Logger defines the logging interface used by actuators.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// StateChange is delivered to observers after a successful command.
type StateChange struct {
	ActuatorID entity.ActuatorID
	Kind       entity.Kind
	Previous   rfsocket.BinaryState
	State      rfsocket.BinaryState
	Source     string
}

// Changed reports whether the command altered the commanded state.
func (c StateChange) Changed() bool { return c.Previous != c.State }

// Option configures a Socket.
type Option func(*Socket)

// WithCaption sets the default caption used until persisted settings load.
func WithCaption(caption string) Option {
	return func(s *Socket) { s.caption = caption }
}

// WithSettingsRepository persists the socket's settings.
func WithSettingsRepository(repo settings.Repository) Option {
	return func(s *Socket) { s.repo = repo }
}

// WithLogger sets the logger for settings persistence failures.
func WithLogger(l Logger) Option {
	return func(s *Socket) {
		if l != nil {
			s.logger = l
		}
	}
}

// Socket is a binary actuator over one RF socket port.
//
// Thread Safety: all methods are safe for concurrent use. Commands are
// serialised so Toggle never interleaves with another command.
type Socket struct {
	id      entity.ActuatorID
	output  BinaryOutput
	store   *settings.Store
	repo    settings.Repository
	logger  Logger
	caption string

	cmdMu sync.Mutex

	obsMu     sync.RWMutex
	observers []func(StateChange)
}

// NewSocket creates a socket driving output. Settings start at their
// defaults (enabled, caption = id) until LoadSettings.
func NewSocket(id entity.ActuatorID, output BinaryOutput, opts ...Option) (*Socket, error) {
	if id == "" {
		return nil, entity.ErrInvalidID
	}
	if output == nil {
		return nil, fmt.Errorf("%w: socket %s", ErrNoOutput, id)
	}

	s := &Socket{
		id:      id,
		output:  output,
		store:   settings.NewStore("actuator/" + string(id)),
		logger:  noopLogger{},
		caption: string(id),
	}
	for _, opt := range opts {
		opt(s)
	}

	//nolint:errcheck // Keys are non-empty constants; Default cannot fail
	s.store.Default(SettingIsEnabled, settings.Boolean(true))
	//nolint:errcheck // Keys are non-empty constants; Default cannot fail
	s.store.Default(SettingCaption, settings.String(s.caption))
	return s, nil
}

// ID returns the actuator identifier.
func (s *Socket) ID() entity.ActuatorID { return s.id }

// Kind returns "Socket".
func (s *Socket) Kind() entity.Kind { return SocketKind }

// Settings returns the socket's settings store.
func (s *Socket) Settings() *settings.Store { return s.store }

// LoadSettings hydrates the settings from the repository and enables
// autosave. Without a repository the defaults stay in effect.
func (s *Socket) LoadSettings(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return settings.Bind(ctx, s.store, s.repo, s.logger)
}

// Enabled reports the IsEnabled setting. A value of the wrong type counts
// as enabled.
func (s *Socket) Enabled() bool {
	on, err := s.store.GetBoolean(SettingIsEnabled)
	return err != nil || on
}

// Caption returns the Caption setting.
func (s *Socket) Caption() string {
	caption, err := s.store.GetString(SettingCaption)
	if err != nil {
		return string(s.id)
	}
	return caption
}

// OnStateChanged registers an observer called after every successful
// command, on the commanding goroutine.
func (s *Socket) OnStateChanged(fn func(StateChange)) {
	if fn == nil {
		return
	}
	s.obsMu.Lock()
	s.observers = append(s.observers, fn)
	s.obsMu.Unlock()
}

// State returns the last commanded state.
func (s *Socket) State() (rfsocket.BinaryState, error) {
	return s.output.Read()
}

// IsOn reports whether the last commanded state is High.
func (s *Socket) IsOn() (bool, error) {
	st, err := s.output.Read()
	return st == rfsocket.High, err
}

// TurnOn commands the socket on.
func (s *Socket) TurnOn(source string) error {
	return s.command(source, func(rfsocket.BinaryState) rfsocket.BinaryState { return rfsocket.High })
}

// TurnOff commands the socket off.
func (s *Socket) TurnOff(source string) error {
	return s.command(source, func(rfsocket.BinaryState) rfsocket.BinaryState { return rfsocket.Low })
}

// Toggle inverts the last commanded state.
func (s *Socket) Toggle(source string) error {
	return s.command(source, rfsocket.BinaryState.Invert)
}

// Apply executes a textual command: "on", "off" or "toggle" (any case).
// "high"/"low" and the other forms rfsocket.ParseBinaryState accepts work too.
func (s *Socket) Apply(command, source string) error {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "toggle":
		return s.Toggle(source)
	default:
		st, err := rfsocket.ParseBinaryState(command)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidCommand, command)
		}
		if st == rfsocket.High {
			return s.TurnOn(source)
		}
		return s.TurnOff(source)
	}
}

func (s *Socket) command(source string, next func(rfsocket.BinaryState) rfsocket.BinaryState) error {
	if !s.Enabled() {
		return fmt.Errorf("%w: %s", ErrDisabled, s.id)
	}

	s.cmdMu.Lock()
	prev, err := s.output.Read()
	if err != nil {
		s.cmdMu.Unlock()
		return fmt.Errorf("reading %s: %w", s.id, err)
	}
	state := next(prev)
	if err := s.output.Write(state); err != nil {
		s.cmdMu.Unlock()
		return fmt.Errorf("writing %s: %w", s.id, err)
	}
	s.cmdMu.Unlock()

	s.notify(StateChange{
		ActuatorID: s.id,
		Kind:       SocketKind,
		Previous:   prev,
		State:      state,
		Source:     source,
	})
	return nil
}

func (s *Socket) notify(c StateChange) {
	s.obsMu.RLock()
	observers := make([]func(StateChange), len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, fn := range observers {
		fn(c)
	}
}
