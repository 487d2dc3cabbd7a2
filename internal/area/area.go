package area

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/apperr"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

// Kind is the entity kind of an area.
const Kind entity.Kind = "Area"

// Setting keys of an area.
const (
	SettingCaption   = "Caption"
	SettingSortValue = "SortValue"
)

// ErrDuplicateActuator is returned when an actuator is added twice.
var ErrDuplicateActuator = fmt.Errorf("area: actuator %w", apperr.ErrConflict)

// Logger defines the logging interface used by areas.
type Logger interface {
	Warn(msg string, args ...any)
}

// Option configures an Area.
type Option func(*Area)

// WithCaption sets the default caption.
func WithCaption(caption string) Option {
	return func(a *Area) { a.caption = caption }
}

// WithSortValue sets the default sort value.
func WithSortValue(v int64) Option {
	return func(a *Area) { a.sortValue = v }
}

// WithSettingsRepository persists the area's settings.
func WithSettingsRepository(repo settings.Repository) Option {
	return func(a *Area) { a.repo = repo }
}

// WithLogger sets the logger for settings persistence failures.
func WithLogger(l Logger) Option {
	return func(a *Area) { a.logger = l }
}

// Area is an ordered set of actuator identifiers with a caption.
type Area struct {
	id        entity.AreaID
	store     *settings.Store
	repo      settings.Repository
	logger    Logger
	caption   string
	sortValue int64

	mu        sync.RWMutex
	actuators []entity.ActuatorID
}

// New creates an area.
func New(id entity.AreaID, opts ...Option) (*Area, error) {
	if id == "" {
		return nil, entity.ErrInvalidID
	}
	a := &Area{
		id:      id,
		store:   settings.NewStore("area/" + string(id)),
		caption: string(id),
	}
	for _, opt := range opts {
		opt(a)
	}
	//nolint:errcheck // Keys are non-empty constants; Default cannot fail
	a.store.Default(SettingCaption, settings.String(a.caption))
	//nolint:errcheck // Keys are non-empty constants; Default cannot fail
	a.store.Default(SettingSortValue, settings.Integer(a.sortValue))
	return a, nil
}

// ID returns the area identifier.
func (a *Area) ID() entity.AreaID { return a.id }

// Kind returns "Area".
func (a *Area) Kind() entity.Kind { return Kind }

// Settings returns the area's settings store.
func (a *Area) Settings() *settings.Store { return a.store }

// WithActuator adds an actuator to the area.
func (a *Area) WithActuator(id entity.ActuatorID) error {
	if id == "" {
		return entity.ErrInvalidID
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.actuators {
		if existing == id {
			return fmt.Errorf("%w: %s already in %s", ErrDuplicateActuator, id, a.id)
		}
	}
	a.actuators = append(a.actuators, id)
	return nil
}

// Actuators returns the member actuators in insertion order.
func (a *Area) Actuators() []entity.ActuatorID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]entity.ActuatorID, len(a.actuators))
	copy(out, a.actuators)
	return out
}

// Caption returns the Caption setting.
func (a *Area) Caption() string {
	caption, err := a.store.GetString(SettingCaption)
	if err != nil {
		return string(a.id)
	}
	return caption
}

// SortValue returns the SortValue setting.
func (a *Area) SortValue() int64 {
	v, err := a.store.GetInteger(SettingSortValue)
	if err != nil {
		return 0
	}
	return v
}

// LoadSettings hydrates the settings from the repository and enables
// autosave. Without a repository the defaults stay in effect.
func (a *Area) LoadSettings(ctx context.Context) error {
	if a.repo == nil {
		return nil
	}
	var logger settings.Logger
	if a.logger != nil {
		logger = a.logger
	}
	return settings.Bind(ctx, a.store, a.repo, logger)
}

// Status is the API representation of an area.
type Status struct {
	ID        entity.AreaID       `json:"id"`
	Caption   string              `json:"caption"`
	SortValue int64               `json:"sort_value"`
	Actuators []entity.ActuatorID `json:"actuators"`
}

// ExposeToAPI registers GET /areas/{id} and the settings endpoints.
func (a *Area) ExposeToAPI(router entity.Router) {
	base := "/areas/" + string(a.id)
	router.Get(base, func(w http.ResponseWriter, _ *http.Request) {
		api.WriteJSON(w, http.StatusOK, Status{
			ID:        a.id,
			Caption:   a.Caption(),
			SortValue: a.SortValue(),
			Actuators: a.Actuators(),
		})
	})
	api.ExposeSettings(router, base, a.store)
}
