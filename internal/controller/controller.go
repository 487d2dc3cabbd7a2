package controller

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/discovery"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-controller/internal/scheduler"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

// Initializer registers the domain (devices, areas, actuators,
// automations) during the DomainInitialize phase.
type Initializer interface {
	Initialize(ctx context.Context, c *Controller) error
}

// InitializerFunc adapts a function to Initializer.
type InitializerFunc func(ctx context.Context, c *Controller) error

// Initialize calls f.
func (f InitializerFunc) Initialize(ctx context.Context, c *Controller) error { return f(ctx, c) }

// Deps holds what a Controller is built from.
type Deps struct {
	Config      *config.Config
	Version     string
	Settings    settings.Repository // optional; entities keep defaults without it
	Initializer Initializer         // optional
	Credentials api.Authenticator   // optional; enables the login endpoint
	LogOutput   io.Writer           // optional; overrides logging.output
	TimerOpts   []scheduler.Option  // optional, for tests

	// HealthChecks are reported by GET /api/v1/health, keyed by name.
	HealthChecks map[string]api.HealthChecker
}

// Controller is the explicit context object of the runtime: registries,
// logger, timer, transport and settings repository, created once and passed
// to everything that needs them.
//
// Registry mutation is expected during DomainInitialize only; reads are
// safe from any goroutine afterwards.
type Controller struct {
	cfg         *config.Config
	version     string
	repo        settings.Repository
	initializer Initializer
	credentials api.Authenticator
	logOutput   io.Writer
	timerOpts   []scheduler.Option
	checks      map[string]api.HealthChecker

	devices     *entity.Registry[entity.DeviceID, entity.Device]
	areas       *entity.Registry[entity.AreaID, entity.Area]
	actuators   *entity.Registry[entity.ActuatorID, entity.Actuator]
	automations *entity.Registry[entity.AutomationID, entity.Automation]

	phase   atomic.Int32
	started chan struct{}

	mu         sync.RWMutex
	routes     []func(entity.Router)
	logger     *logging.Logger
	server     *api.Server
	timer      *scheduler.Timer
	advertiser *discovery.Advertiser
}

// New creates a controller. Nothing is started until Run.
func New(deps Deps) (*Controller, error) {
	if deps.Config == nil {
		return nil, ErrNoConfig
	}
	c := &Controller{
		cfg:         deps.Config,
		version:     deps.Version,
		repo:        deps.Settings,
		initializer: deps.Initializer,
		credentials: deps.Credentials,
		logOutput:   deps.LogOutput,
		timerOpts:   deps.TimerOpts,
		checks:      deps.HealthChecks,
		devices:     entity.NewRegistry[entity.DeviceID, entity.Device](),
		areas:       entity.NewRegistry[entity.AreaID, entity.Area](),
		actuators:   entity.NewRegistry[entity.ActuatorID, entity.Actuator](),
		automations: entity.NewRegistry[entity.AutomationID, entity.Automation](),
		started:     make(chan struct{}),
	}

	// Bootstrap logger until LoggingReady: same sink and level, no buffer.
	boot := c.cfg.Logging
	boot.BufferSize = 0
	c.logger = c.newLogger(boot)
	return c, nil
}

func (c *Controller) newLogger(cfg config.LoggingConfig) *logging.Logger {
	if c.logOutput != nil {
		return logging.NewWithWriter(cfg, c.version, c.logOutput)
	}
	return logging.New(cfg, c.version)
}

// Config returns the configuration the controller was built from.
func (c *Controller) Config() *config.Config { return c.cfg }

// Version returns the software version.
func (c *Controller) Version() string { return c.version }

// SettingsRepository returns the settings persistence, or nil.
func (c *Controller) SettingsRepository() settings.Repository { return c.repo }

// Phase returns the current startup phase.
func (c *Controller) Phase() Phase { return Phase(c.phase.Load()) }

// Started is closed when the Run phase begins.
func (c *Controller) Started() <-chan struct{} { return c.started }

// Logger returns the current logger: a bootstrap logger before
// LoggingReady, the configured one afterwards.
func (c *Controller) Logger() *logging.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}

// Timer returns the scheduler, available from TimerReady.
func (c *Controller) Timer() (*scheduler.Timer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.timer == nil {
		return nil, fmt.Errorf("%w: timer", ErrNotReady)
	}
	return c.timer, nil
}

// Server returns the HTTP transport, available from TransportReady.
func (c *Controller) Server() (*api.Server, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.server == nil {
		return nil, fmt.Errorf("%w: transport", ErrNotReady)
	}
	return c.server, nil
}

// Broadcast sends an event to WebSocket clients once the transport exists.
func (c *Controller) Broadcast(channel string, payload any) {
	if srv, err := c.Server(); err == nil {
		srv.Hub().Broadcast(channel, payload)
	}
}

// AddRoutes queues controller-level routes. They are registered in
// ApiExpose after the built-in controller routes and before any entity.
func (c *Controller) AddRoutes(register func(entity.Router)) {
	if register == nil {
		return
	}
	c.mu.Lock()
	c.routes = append(c.routes, register)
	c.mu.Unlock()
}

// AddDevice registers a device; identifiers are unique.
func (c *Controller) AddDevice(d entity.Device) error {
	if d == nil {
		return entity.ErrNilEntity
	}
	return c.devices.AddUnique(d.ID(), d)
}

// AddArea registers an area; identifiers are unique.
func (c *Controller) AddArea(a entity.Area) error {
	if a == nil {
		return entity.ErrNilEntity
	}
	return c.areas.AddUnique(a.ID(), a)
}

// AddActuator registers or replaces an actuator.
func (c *Controller) AddActuator(a entity.Actuator) error {
	if a == nil {
		return entity.ErrNilEntity
	}
	return c.actuators.AddOrUpdate(a.ID(), a)
}

// AddAutomation registers or replaces an automation.
func (c *Controller) AddAutomation(a entity.Automation) error {
	if a == nil {
		return entity.ErrNilEntity
	}
	return c.automations.AddOrUpdate(a.ID(), a)
}

// Device returns the device registered under id.
func (c *Controller) Device(id entity.DeviceID) (entity.Device, error) { return c.devices.Get(id) }

// Area returns the area registered under id.
func (c *Controller) Area(id entity.AreaID) (entity.Area, error) { return c.areas.Get(id) }

// Actuator returns the actuator registered under id.
func (c *Controller) Actuator(id entity.ActuatorID) (entity.Actuator, error) {
	return c.actuators.Get(id)
}

// Automation returns the automation registered under id.
func (c *Controller) Automation(id entity.AutomationID) (entity.Automation, error) {
	return c.automations.Get(id)
}

// Devices returns the device registry, for use with entity.Typed and friends.
func (c *Controller) Devices() *entity.Registry[entity.DeviceID, entity.Device] { return c.devices }

// Areas returns the area registry.
func (c *Controller) Areas() *entity.Registry[entity.AreaID, entity.Area] { return c.areas }

// Actuators returns the actuator registry.
func (c *Controller) Actuators() *entity.Registry[entity.ActuatorID, entity.Actuator] {
	return c.actuators
}

// Automations returns the automation registry.
func (c *Controller) Automations() *entity.Registry[entity.AutomationID, entity.Automation] {
	return c.automations
}
