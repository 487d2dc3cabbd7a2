package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/logging"
)

// Frame types on the event socket.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
	FramePong        = "pong"
	FrameEvent       = "event"
	FrameAck         = "ack"
	FrameError       = "error"
)

// Event channels broadcast by the controller. Subscriptions may name a
// channel exactly, a prefix ending in ".*" ("actuator.*"), or "*".
const (
	ChannelActuatorState   = "actuator.state_changed"
	ChannelAutomationFired = "automation.fired"
	ChannelControllerPhase = "controller.phase"
)

const (
	subscriberQueue   = 256
	defaultMaxMessage = 8192
)

// Frame is one message on the event socket, in either direction.
type Frame struct {
	Type     string    `json:"type"`
	ID       string    `json:"id,omitempty"`
	Channel  string    `json:"channel,omitempty"`
	Channels []string  `json:"channels,omitempty"`
	Time     time.Time `json:"time,omitzero"`
	Data     any       `json:"data,omitempty"`
}

// Hub fans controller events out to WebSocket subscribers.
type Hub struct {
	logger     *logging.Logger
	readLimit  int64
	pingEvery  time.Duration
	writeGrace time.Duration

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// subscriber is one connected socket. queue is closed exactly once, under
// mu, after which offer drops everything.
type subscriber struct {
	hub  *Hub
	conn *websocket.Conn

	mu       sync.Mutex
	queue    chan []byte
	closed   bool
	patterns map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHub creates a hub with the keepalive and size limits of cfg.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	limit := cfg.MaxMessageSize
	if limit <= 0 {
		limit = defaultMaxMessage
	}
	return &Hub{
		logger:     logger,
		readLimit:  int64(limit),
		pingEvery:  secondsOr(cfg.PingInterval, 30),
		writeGrace: secondsOr(cfg.PongTimeout, 10),
		subs:       make(map[*subscriber]struct{}),
	}
}

func newSubscriber(h *Hub, conn *websocket.Conn, queue int, patterns ...string) *subscriber {
	s := &subscriber{
		hub:      h,
		conn:     conn,
		queue:    make(chan []byte, queue),
		patterns: make(map[string]struct{}, len(patterns)),
	}
	for _, p := range patterns {
		s.patterns[p] = struct{}{}
	}
	return s
}

// Run blocks until ctx is done, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.mu.Unlock()

	for s := range subs {
		s.close()
		if s.conn != nil {
			s.conn.Close()
		}
	}
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("websocket subscriber connected", "subscribers", n)
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[s]
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		s.close()
		h.logger.Debug("websocket subscriber disconnected", "subscribers", n)
	}
}

// Subscribers returns the number of connected sockets.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast sends payload on channel to every matching subscriber. It
// never blocks; a subscriber whose queue is full misses the event.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(Frame{
		Type:    FrameEvent,
		Channel: channel,
		Time:    time.Now().UTC(),
		Data:    payload,
	})
	if err != nil {
		h.logger.Error("encoding websocket event failed", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if s.wants(channel) {
			s.offer(data)
		}
	}
}

// ServeHTTP upgrades the request and serves the socket until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := newSubscriber(h, conn, subscriberQueue)
	h.add(s)
	go s.writeLoop()
	go s.readLoop()
}

// matchChannel reports whether pattern selects channel.
func matchChannel(pattern, channel string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(channel, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == channel
	}
}

func (s *subscriber) wants(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.patterns {
		if matchChannel(p, channel) {
			return true
		}
	}
	return false
}

func (s *subscriber) offer(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- data:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
}

func (s *subscriber) readLoop() {
	defer func() {
		s.hub.remove(s)
		s.conn.Close()
	}()

	idle := s.hub.pingEvery + s.hub.writeGrace
	extend := func() error { return s.conn.SetReadDeadline(time.Now().Add(idle)) }

	s.conn.SetReadLimit(s.hub.readLimit)
	extend() //nolint:errcheck // a failed deadline surfaces on the next read
	s.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		extend() //nolint:errcheck // as above
		s.handle(raw)
	}
}

func (s *subscriber) writeLoop() {
	ping := time.NewTicker(s.hub.pingEvery)
	defer func() {
		ping.Stop()
		s.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		s.conn.SetWriteDeadline(time.Now().Add(s.hub.writeGrace)) //nolint:errcheck // write reports it
		return s.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-s.queue:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := write(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *subscriber) handle(raw []byte) {
	var in Frame
	if err := json.Unmarshal(raw, &in); err != nil {
		s.reply(Frame{Type: FrameError, Data: map[string]string{"message": "invalid JSON frame"}})
		return
	}

	switch in.Type {
	case FrameSubscribe, FrameUnsubscribe:
		s.mu.Lock()
		for _, p := range in.Channels {
			if in.Type == FrameSubscribe {
				s.patterns[p] = struct{}{}
			} else {
				delete(s.patterns, p)
			}
		}
		s.mu.Unlock()
		s.reply(Frame{Type: FrameAck, ID: in.ID, Channels: in.Channels})
	case FramePing:
		s.reply(Frame{Type: FramePong, ID: in.ID})
	default:
		s.reply(Frame{Type: FrameError, ID: in.ID, Data: map[string]string{"message": "unknown frame type " + in.Type}})
	}
}

func (s *subscriber) reply(f Frame) {
	f.Time = time.Now().UTC()
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	s.offer(data)
}
