package rfsocket

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/scheduler"
)

// ControllerKind is the entity kind of a remote socket controller.
const ControllerKind entity.Kind = "RemoteSocketController"

// DefaultRefreshInterval is how often every port's state is re-sent.
const DefaultRefreshInterval = 5 * time.Second

// Scheduler is the part of scheduler.Timer a Controller needs.
type Scheduler interface {
	Every(period time.Duration, action func()) (*scheduler.Recurrence, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithRefreshInterval overrides DefaultRefreshInterval.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

type port struct {
	on, off CodeSequence
	state   BinaryState
}

func (p *port) sequence() CodeSequence {
	if p.state == High {
		return p.on
	}
	return p.off
}

// Controller owns the sockets reachable through one RF transmitter.
//
// Thread Safety: all methods are safe for concurrent use.
type Controller struct {
	id         entity.DeviceID
	tx         Transmitter
	interval   time.Duration
	recurrence *scheduler.Recurrence

	mu    sync.Mutex
	ports map[int]*port
}

// NewController creates a controller and schedules the periodic refresh.
func NewController(id entity.DeviceID, tx Transmitter, sched Scheduler, opts ...Option) (*Controller, error) {
	if id == "" {
		return nil, entity.ErrInvalidID
	}
	if tx == nil || sched == nil {
		return nil, fmt.Errorf("%w: controller %s needs a transmitter and a scheduler", ErrMissingDependency, id)
	}

	c := &Controller{
		id:       id,
		tx:       tx,
		interval: DefaultRefreshInterval,
		ports:    make(map[int]*port),
	}
	for _, opt := range opts {
		opt(c)
	}

	rec, err := sched.Every(c.interval, c.Refresh)
	if err != nil {
		return nil, fmt.Errorf("scheduling refresh for %s: %w", id, err)
	}
	c.recurrence = rec
	return c, nil
}

// ID returns the device identifier.
func (c *Controller) ID() entity.DeviceID { return c.id }

// Kind returns "RemoteSocketController".
func (c *Controller) Kind() entity.Kind { return ControllerKind }

// RefreshInterval returns the resend interval.
func (c *Controller) RefreshInterval() time.Duration { return c.interval }

// WithPort registers a socket under index. The port starts Low and its off
// sequence is transmitted once to establish a known baseline.
func (c *Controller) WithPort(index int, on, off CodeSequence) error {
	if index < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, index)
	}
	if on.IsEmpty() || off.IsEmpty() {
		return fmt.Errorf("%w: port %d", ErrEmptySequence, index)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.ports[index]; exists {
		return fmt.Errorf("%w: %d on %s", ErrPortExists, index, c.id)
	}
	p := &port{on: on, off: off, state: Low}
	c.ports[index] = p
	c.tx.Transmit(p.sequence())
	return nil
}

// Write records state as the port's last commanded state and transmits it
// once.
func (c *Controller) Write(index int, state BinaryState) error {
	if state != Low && state != High {
		return fmt.Errorf("%w: %d", ErrInvalidState, state)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.ports[index]
	if !ok {
		return fmt.Errorf("%w: %d on %s", ErrPortNotFound, index, c.id)
	}
	p.state = state
	c.tx.Transmit(p.sequence())
	return nil
}

// Read returns the last commanded state. Nothing is transmitted.
func (c *Controller) Read(index int) (BinaryState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.ports[index]
	if !ok {
		return Low, fmt.Errorf("%w: %d on %s", ErrPortNotFound, index, c.id)
	}
	return p.state, nil
}

// Refresh re-transmits every port's last commanded state once, in ascending
// port order, whether or not anything changed since the previous refresh.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, index := range c.sortedIndices() {
		c.tx.Transmit(c.ports[index].sequence())
	}
}

// Ports returns the registered port indices in ascending order.
func (c *Controller) Ports() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortedIndices()
}

func (c *Controller) sortedIndices() []int {
	indices := make([]int, 0, len(c.ports))
	for index := range c.ports {
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

// Port returns a handle for a registered port.
func (c *Controller) Port(index int) (*Port, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ports[index]; !ok {
		return nil, fmt.Errorf("%w: %d on %s", ErrPortNotFound, index, c.id)
	}
	return &Port{controller: c, index: index}, nil
}

// Stop cancels the periodic refresh.
func (c *Controller) Stop() {
	if c.recurrence != nil {
		c.recurrence.Cancel()
	}
}

// Port is a single socket output of a Controller.
type Port struct {
	controller *Controller
	index      int
}

// Index returns the port index within its controller.
func (p *Port) Index() int { return p.index }

// Write commands the socket.
func (p *Port) Write(state BinaryState) error { return p.controller.Write(p.index, state) }

// Read returns the last commanded state.
func (p *Port) Read() (BinaryState, error) { return p.controller.Read(p.index) }
