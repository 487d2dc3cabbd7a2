package controller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/discovery"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/scheduler"
)

// Run executes the startup phases in order and then blocks running the
// timer until ctx is cancelled.
//
// Failures inside DomainInitialize, SettingsLoad and ApiExpose are logged
// and skipped per entity. Any other failure is fatal: it is logged at
// ERROR and returned wrapped in ErrStartup. Everything started so far is
// shut down before Run returns.
func (c *Controller) Run(ctx context.Context) (err error) {
	if !c.phase.CompareAndSwap(int32(PhaseCreated), int32(PhaseTransportReady)) {
		return fmt.Errorf("%w: already run", ErrStartup)
	}
	begin := time.Now()

	defer c.shutdown()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			phase := c.Phase()
			c.Logger().Error("controller startup failed", "phase", phase.String(), "error", err)
			err = fmt.Errorf("%w: %s: %w", ErrStartup, phase, err)
		}
	}()

	steps := []struct {
		phase Phase
		run   func(context.Context) error
	}{
		{PhaseTransportReady, c.transportReady},
		{PhaseLoggingReady, c.loggingReady},
		{PhaseTimerReady, c.timerReady},
		{PhaseDomainInitialize, c.domainInitialize},
		{PhaseSettingsLoad, c.settingsLoad},
		{PhaseTransportStart, c.transportStart},
		{PhaseAPIExpose, c.apiExpose},
	}
	for _, step := range steps {
		c.enter(step.phase)
		if err := step.run(ctx); err != nil {
			return err
		}
	}

	c.Logger().Info("startup completed", "duration", time.Since(begin).String())
	c.enter(PhaseRun)
	close(c.started)

	timer, err := c.Timer()
	if err != nil {
		return err
	}
	if err := timer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *Controller) enter(p Phase) {
	c.phase.Store(int32(p))
	c.Logger().Debug("controller phase", "phase", p.String())
	c.Broadcast(api.ChannelControllerPhase, map[string]string{"phase": p.String()})
}

func (c *Controller) transportReady(context.Context) error {
	srv, err := api.New(api.Deps{
		Config:   c.cfg.API,
		WS:       c.cfg.WebSocket,
		Security: c.cfg.Security,
		Logger:   c.Logger(),
		Version:  c.version,

		Credentials: c.credentials,
		Checks:      c.checks,
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.server = srv
	c.mu.Unlock()
	return nil
}

func (c *Controller) loggingReady(context.Context) error {
	logger := c.newLogger(c.cfg.Logging)

	c.mu.Lock()
	c.logger = logger
	srv := c.server
	c.mu.Unlock()

	srv.SetLogger(logger)
	if buf := logger.Buffer(); buf != nil {
		srv.Dispatcher().Get("/log", buf.ServeHTTP)
	}
	logger.Info("logging ready", "level", c.cfg.Logging.Level, "format", c.cfg.Logging.Format)
	return nil
}

func (c *Controller) timerReady(context.Context) error {
	opts := append([]scheduler.Option{scheduler.WithLogger(c.Logger())}, c.timerOpts...)
	timer := scheduler.New(opts...)
	c.mu.Lock()
	c.timer = timer
	c.mu.Unlock()
	return nil
}

func (c *Controller) domainInitialize(ctx context.Context) error {
	if c.initializer == nil {
		c.Logger().Warn("no initializer configured; controller has no entities")
		return nil
	}
	if err := safeCall(func() error { return c.initializer.Initialize(ctx, c) }); err != nil {
		c.Logger().Error("domain initialization failed", "error", err)
	}
	return nil
}

func (c *Controller) settingsLoad(ctx context.Context) error {
	logger := c.Logger()
	for _, e := range c.areas.Entries() {
		if err := safeCall(func() error { return e.Entity.LoadSettings(ctx) }); err != nil {
			logger.Error("loading area settings failed", "area", e.ID.String(), "error", err)
		}
	}
	for _, e := range c.actuators.Entries() {
		if err := safeCall(func() error { return e.Entity.LoadSettings(ctx) }); err != nil {
			logger.Error("loading actuator settings failed", "actuator", e.ID.String(), "error", err)
		}
	}
	for _, e := range c.automations.Entries() {
		if err := safeCall(func() error { return e.Entity.LoadSettings(ctx) }); err != nil {
			logger.Error("loading automation settings failed", "automation", e.ID.String(), "error", err)
		}
	}
	return nil
}

func (c *Controller) transportStart(ctx context.Context) error {
	srv, err := c.Server()
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if !c.cfg.Discovery.Enabled {
		return nil
	}
	port := c.cfg.API.Port
	if tcp, ok := srv.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	adv, err := discovery.Advertise(c.cfg.Discovery, discovery.Advertisement{
		Instance: c.cfg.Site.Name,
		Port:     port,
		SiteID:   c.cfg.Site.ID,
		Version:  c.version,
	})
	if err != nil {
		c.Logger().Warn("mDNS advertisement failed", "error", err)
		return nil
	}
	c.mu.Lock()
	c.advertiser = adv
	c.mu.Unlock()
	return nil
}

func (c *Controller) apiExpose(context.Context) error {
	srv, err := c.Server()
	if err != nil {
		return err
	}
	router := srv.Dispatcher()
	logger := c.Logger()

	router.Get("/statistics", c.handleStatistics)

	c.mu.RLock()
	routes := c.routes
	c.mu.RUnlock()
	for _, register := range routes {
		if err := safeCall(func() error { register(router); return nil }); err != nil {
			logger.Error("exposing controller routes failed", "error", err)
		}
	}

	for _, e := range c.areas.Entries() {
		if err := safeCall(func() error { e.Entity.ExposeToAPI(router); return nil }); err != nil {
			logger.Error("exposing area failed", "area", e.ID.String(), "error", err)
		}
	}
	for _, e := range c.actuators.Entries() {
		if err := safeCall(func() error { e.Entity.ExposeToAPI(router); return nil }); err != nil {
			logger.Error("exposing actuator failed", "actuator", e.ID.String(), "error", err)
		}
	}
	for _, e := range c.automations.Entries() {
		exposer, ok := e.Entity.(entity.APIExposer)
		if !ok {
			continue
		}
		if err := safeCall(func() error { exposer.ExposeToAPI(router); return nil }); err != nil {
			logger.Error("exposing automation failed", "automation", e.ID.String(), "error", err)
		}
	}

	logger.Info(c.Statistics())
	return nil
}

func (c *Controller) handleStatistics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(c.Statistics())) //nolint:errcheck // client disconnects are not actionable
}

// shutdown releases everything Run started, in reverse order.
func (c *Controller) shutdown() {
	c.phase.Store(int32(PhaseStopped))

	c.mu.Lock()
	adv, srv := c.advertiser, c.server
	c.advertiser = nil
	c.mu.Unlock()

	adv.Close() //nolint:errcheck // Close never fails
	if srv != nil {
		if err := srv.Close(); err != nil {
			c.Logger().Warn("closing API server", "error", err)
		}
	}
	c.Logger().Info("controller stopped")
}

// safeCall runs fn and turns a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
