package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/actuator"
	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/apperr"
	"github.com/nerrad567/gray-logic-controller/internal/area"
	"github.com/nerrad567/gray-logic-controller/internal/audit"
	"github.com/nerrad567/gray-logic-controller/internal/automation"
	"github.com/nerrad567/gray-logic-controller/internal/controller"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-controller/internal/rfsocket"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

var (
	// ErrNoBus is returned when RF gateways are configured without MQTT.
	ErrNoBus = fmt.Errorf("topology: mqtt bus %w", apperr.ErrInvalidArgument)

	// ErrUnknownKind is returned for an automation kind that does not exist.
	ErrUnknownKind = fmt.Errorf("topology: automation kind %w", apperr.ErrInvalidArgument)

	// ErrUnknownActuator is returned when an area or automation names an
	// actuator that was not created.
	ErrUnknownActuator = fmt.Errorf("topology: actuator %w", apperr.ErrNotFound)
)

// Bus is the part of the MQTT client the topology uses; *mqtt.Client
// satisfies it.
type Bus interface {
	rfsocket.Publisher
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// PointWriter records history; *influxdb.Client satisfies it.
type PointWriter interface {
	WriteActuatorState(actuatorID, kind string, on bool, source string)
	WriteAutomationFired(automationID string, on bool, targets int)
}

// journalTimeout bounds a single audit write from an observer.
const journalTimeout = 2 * time.Second

// pruneInterval is how often expired audit events are deleted.
const pruneInterval = 24 * time.Hour

// Option configures a Builder.
type Option func(*Builder)

// WithBus publishes RF transmissions and state over MQTT and subscribes to
// actuator commands.
func WithBus(bus Bus) Option {
	return func(b *Builder) { b.bus = bus }
}

// WithPointWriter records state changes and automation firings.
func WithPointWriter(w PointWriter) Option {
	return func(b *Builder) { b.points = w }
}

// WithJournal records commands and automation firings in repo and serves
// them on /audit.
func WithJournal(repo audit.Repository) Option {
	return func(b *Builder) { b.journal = repo }
}

// Builder creates the configured entities on a controller.
type Builder struct {
	cfg     *config.Config
	bus     Bus
	points  PointWriter
	journal audit.Repository
	topics  mqtt.Topics
}

// New creates a Builder for cfg.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// stateMessage is the retained payload on an actuator's state topic.
type stateMessage struct {
	State  string `json:"state"`
	Source string `json:"source"`
}

// firedMessage is published when an automation switches its targets.
type firedMessage struct {
	State   string `json:"state"`
	Targets int    `json:"targets"`
	Failed  int    `json:"failed"`
}

// Initialize builds every gateway, socket, area and automation. Invalid
// entries are skipped and returned together.
func (b *Builder) Initialize(_ context.Context, c *controller.Controller) error {
	logger := c.Logger().With("component", "topology")

	var errs []error
	errs = append(errs, b.buildGateways(c, logger)...)
	errs = append(errs, b.buildAreas(c, logger)...)
	errs = append(errs, b.buildAutomations(c, logger)...)
	if err := b.subscribeCommands(c, logger); err != nil {
		errs = append(errs, err)
	}
	if err := b.exposeJournal(c, logger); err != nil {
		errs = append(errs, err)
	}

	logger.Info("topology built",
		"devices", c.Devices().Len(),
		"actuators", c.Actuators().Len(),
		"areas", c.Areas().Len(),
		"automations", c.Automations().Len(),
		"errors", len(errs),
	)
	return errors.Join(errs...)
}

func (b *Builder) buildGateways(c *controller.Controller, logger *logging.Logger) []error {
	if len(b.cfg.RF.Gateways) == 0 {
		return nil
	}
	if b.bus == nil {
		return []error{ErrNoBus}
	}
	timer, err := c.Timer()
	if err != nil {
		return []error{err}
	}

	var errs []error
	for _, gw := range b.cfg.RF.Gateways {
		tx := rfsocket.NewMQTTTransmitter(b.bus, gw.ID, logger)
		ctrl, err := rfsocket.NewController(entity.DeviceID(gw.ID), tx, timer,
			rfsocket.WithRefreshInterval(b.cfg.RF.RefreshInterval))
		if err != nil {
			errs = append(errs, fmt.Errorf("gateway %q: %w", gw.ID, err))
			continue
		}
		if err := c.AddDevice(ctrl); err != nil {
			ctrl.Stop()
			errs = append(errs, fmt.Errorf("gateway %q: %w", gw.ID, err))
			continue
		}
		for _, sc := range gw.Sockets {
			if err := b.buildSocket(c, ctrl, sc, logger); err != nil {
				errs = append(errs, fmt.Errorf("socket %q on gateway %q: %w", sc.ID, gw.ID, err))
			}
		}
	}
	return errs
}

func (b *Builder) buildSocket(c *controller.Controller, ctrl *rfsocket.Controller, sc config.RFSocketConfig, logger *logging.Logger) error {
	id, err := entity.NewActuatorID(sc.ID)
	if err != nil {
		return err
	}
	if _, err := c.Actuator(id); err == nil {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, id)
	}

	on, off := codeSequence(sc.On, sc.Repeats), codeSequence(sc.Off, sc.Repeats)
	if err := ctrl.WithPort(sc.Port, on, off); err != nil {
		return err
	}
	port, err := ctrl.Port(sc.Port)
	if err != nil {
		return err
	}

	caption := sc.Caption
	if caption == "" {
		caption = sc.ID
	}
	socket, err := actuator.NewSocket(id, port,
		actuator.WithCaption(caption),
		actuator.WithSettingsRepository(c.SettingsRepository()),
		actuator.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	socket.OnStateChanged(b.stateObserver(c, logger))
	return c.AddActuator(socket)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func codeSequence(codes []config.RFCodeConfig, repeats int) rfsocket.CodeSequence {
	out := make([]rfsocket.Code, 0, len(codes))
	for _, code := range codes {
		out = append(out, rfsocket.Code{Value: code.Value, Length: code.Length, Protocol: code.Protocol})
	}
	seq := rfsocket.NewCodeSequence(out...)
	if repeats > 0 {
		seq = seq.WithRepeats(repeats)
	}
	return seq
}

// stateObserver fans a socket's state changes out to the hub, MQTT and
// InfluxDB.
func (b *Builder) stateObserver(c *controller.Controller, logger *logging.Logger) func(actuator.StateChange) {
	return func(change actuator.StateChange) {
		on := change.State == rfsocket.High
		state := onOff(on)

		c.Broadcast(api.ChannelActuatorState, map[string]any{
			"id":       change.ActuatorID.String(),
			"kind":     string(change.Kind),
			"state":    state,
			"previous": onOff(change.Previous == rfsocket.High),
			"source":   change.Source,
		})

		if b.points != nil {
			b.points.WriteActuatorState(change.ActuatorID.String(), string(change.Kind), on, change.Source)
		}

		b.record(logger, &audit.Event{
			Action:     audit.ActionCommand,
			EntityKind: string(change.Kind),
			EntityID:   change.ActuatorID.String(),
			Source:     change.Source,
			Details:    map[string]any{"state": state},
		})

		if b.bus != nil {
			payload, err := json.Marshal(stateMessage{State: state, Source: change.Source})
			if err != nil {
				return
			}
			if err := b.bus.PublishRetained(b.topics.ActuatorState(change.ActuatorID.String()), payload); err != nil {
				logger.Warn("publishing actuator state failed", "actuator", change.ActuatorID.String(), "error", err)
			}
		}
	}
}

func (b *Builder) buildAreas(c *controller.Controller, logger *logging.Logger) []error {
	var errs []error
	for _, ac := range b.cfg.Areas {
		if err := b.buildArea(c, ac, logger); err != nil {
			errs = append(errs, fmt.Errorf("area %q: %w", ac.ID, err))
		}
	}
	return errs
}

func (b *Builder) buildArea(c *controller.Controller, ac config.AreaConfig, logger *logging.Logger) error {
	id, err := entity.NewAreaID(ac.ID)
	if err != nil {
		return err
	}
	opts := []area.Option{
		area.WithSortValue(int64(ac.SortValue)),
		area.WithSettingsRepository(c.SettingsRepository()),
		area.WithLogger(logger),
	}
	if ac.Caption != "" {
		opts = append(opts, area.WithCaption(ac.Caption))
	}
	a, err := area.New(id, opts...)
	if err != nil {
		return err
	}

	var errs []error
	for _, raw := range ac.Actuators {
		actuatorID := entity.ActuatorID(raw)
		if _, err := c.Actuator(actuatorID); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownActuator, raw))
			continue
		}
		if err := a.WithActuator(actuatorID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.AddArea(a); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *Builder) buildAutomations(c *controller.Controller, logger *logging.Logger) []error {
	var errs []error
	for _, ac := range b.cfg.Automations {
		if err := b.buildAutomation(c, ac, logger); err != nil {
			errs = append(errs, fmt.Errorf("automation %q: %w", ac.ID, err))
		}
	}
	return errs
}

func (b *Builder) buildAutomation(c *controller.Controller, ac config.AutomationConfig, logger *logging.Logger) error {
	if ac.Kind != "" && !strings.EqualFold(ac.Kind, string(automation.TimeWindowKind)) {
		return fmt.Errorf("%w: %s", ErrUnknownKind, ac.Kind)
	}
	id, err := entity.NewAutomationID(ac.ID)
	if err != nil {
		return err
	}

	from, err := settings.ParseDuration(ac.From)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	until, err := settings.ParseDuration(ac.Until)
	if err != nil {
		return fmt.Errorf("until: %w", err)
	}

	targets := make([]automation.Target, 0, len(ac.Targets))
	for _, raw := range ac.Targets {
		t, err := c.Actuator(entity.ActuatorID(raw))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownActuator, raw)
		}
		target, ok := t.(automation.Target)
		if !ok {
			return fmt.Errorf("target %s: %w", raw, apperr.ErrTypeMismatch)
		}
		targets = append(targets, target)
	}

	w, err := automation.NewTimeWindow(id, targets,
		automation.WithWindow(from, until),
		automation.WithPeriod(ac.Period),
		automation.WithSettingsRepository(c.SettingsRepository()),
		automation.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	w.OnFired(b.firedObserver(c, logger))

	timer, err := c.Timer()
	if err != nil {
		return err
	}
	if err := c.AddAutomation(w); err != nil {
		return err
	}
	return w.Schedule(timer)
}

func (b *Builder) firedObserver(c *controller.Controller, logger *logging.Logger) func(automation.Fired) {
	return func(f automation.Fired) {
		state := onOff(f.On)
		c.Broadcast(api.ChannelAutomationFired, map[string]any{
			"id":      f.AutomationID.String(),
			"state":   state,
			"targets": f.Targets,
			"failed":  f.Failed,
		})

		if b.points != nil {
			b.points.WriteAutomationFired(f.AutomationID.String(), f.On, f.Targets)
		}

		b.record(logger, &audit.Event{
			Action:     audit.ActionAutomation,
			EntityKind: string(automation.TimeWindowKind),
			EntityID:   f.AutomationID.String(),
			Source:     actuator.SourceAutomation,
			Details:    map[string]any{"state": state, "targets": f.Targets, "failed": f.Failed},
		})

		if b.bus != nil {
			payload, err := json.Marshal(firedMessage{State: state, Targets: f.Targets, Failed: f.Failed})
			if err != nil {
				return
			}
			if err := b.bus.Publish(b.topics.AutomationFired(f.AutomationID.String()), payload, 0, false); err != nil {
				logger.Warn("publishing automation event failed", "automation", f.AutomationID.String(), "error", err)
			}
		}
	}
}

func (b *Builder) record(logger *logging.Logger, e *audit.Event) {
	if b.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := b.journal.Append(ctx, e); err != nil {
		logger.Warn("recording audit event failed", "action", e.Action, "entity", e.EntityID, "error", err)
	}
}

// exposeJournal queues the journal routes with the controller routes and
// schedules pruning of expired events.
func (b *Builder) exposeJournal(c *controller.Controller, logger *logging.Logger) error {
	if b.journal == nil {
		return nil
	}
	c.AddRoutes(func(router entity.Router) { audit.ExposeToAPI(router, b.journal) })

	retention := b.cfg.Database.JournalRetention
	if retention <= 0 {
		return nil
	}
	timer, err := c.Timer()
	if err != nil {
		return err
	}
	prune := func() {
		ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()
		n, err := b.journal.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("pruning audit journal failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("audit journal pruned", "deleted", n)
		}
	}
	prune()
	if _, err := timer.Every(pruneInterval, prune); err != nil {
		return fmt.Errorf("scheduling journal pruning: %w", err)
	}
	return nil
}

// commandTarget is an actuator accepting text commands over MQTT.
type commandTarget interface {
	Apply(command, source string) error
}

func (b *Builder) subscribeCommands(c *controller.Controller, logger *logging.Logger) error {
	if b.bus == nil {
		return nil
	}
	qos := byte(b.cfg.MQTT.QoS)
	err := b.bus.Subscribe(b.topics.AllActuatorCommands(), qos, func(topic string, payload []byte) error {
		raw, ok := b.topics.ParseActuatorCommand(topic)
		if !ok {
			return nil
		}
		a, err := c.Actuator(entity.ActuatorID(raw))
		if err != nil {
			logger.Warn("command for unknown actuator", "actuator", raw)
			return err
		}
		target, ok := a.(commandTarget)
		if !ok {
			return fmt.Errorf("actuator %s: %w", raw, apperr.ErrTypeMismatch)
		}
		return target.Apply(string(payload), actuator.SourceMQTT)
	})
	if err != nil {
		return fmt.Errorf("subscribing to actuator commands: %w", err)
	}
	return nil
}
