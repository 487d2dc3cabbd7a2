package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "graylogic-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"rf433 transmit", topics.RF433Transmit("garage"), "graylogic/rf433/garage/transmit"},
		{"actuator state", topics.ActuatorState("socket-1"), "graylogic/actuator/socket-1/state"},
		{"actuator command", topics.ActuatorCommand("socket-1"), "graylogic/actuator/socket-1/set"},
		{"all commands", topics.AllActuatorCommands(), "graylogic/actuator/+/set"},
		{"automation fired", topics.AutomationFired("evening"), "graylogic/automation/evening/fired"},
		{"system status", topics.SystemStatus(), "graylogic/system/status"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseActuatorCommand(t *testing.T) {
	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"graylogic/actuator/socket-1/set", "socket-1", true},
		{"graylogic/actuator/socket-1/state", "", false},
		{"graylogic/actuator//set", "", false},
		{"graylogic/actuator/a/b/set", "", false},
		{"other/actuator/socket-1/set", "", false},
	}
	for _, tt := range tests {
		id, ok := Topics{}.ParseActuatorCommand(tt.topic)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ParseActuatorCommand(%q) = %q, %v; want %q, %v", tt.topic, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "controller"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "graylogic-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "controller" {
		t.Errorf("Username = %q", opts.Username)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "graylogic/system/status" || !opts.WillRetained {
		t.Errorf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	if !strings.Contains(string(opts.WillPayload), `"unexpected_disconnect"`) {
		t.Errorf("WillPayload = %s", opts.WillPayload)
	}
}

func TestStatusPayload(t *testing.T) {
	payload, err := statusPayload("graylogic-test", "online", "")
	if err != nil {
		t.Fatalf("statusPayload() error = %v", err)
	}
	var msg map[string]string
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if msg["status"] != "online" || msg["client_id"] != "graylogic-test" || msg["timestamp"] == "" {
		t.Errorf("payload = %s", payload)
	}
	if _, ok := msg["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := newClient(testConfig())

	if c.IsConnected() {
		t.Fatal("IsConnected() = true before Connect")
	}
	if err := c.Publish("graylogic/x", []byte("1"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("graylogic/x", 0, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if c.HasSubscription("graylogic/x") {
		t.Error("failed subscription is tracked")
	}
}

func TestPublish_Validation(t *testing.T) {
	c := newClient(testConfig())

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", nil, 0, ErrInvalidTopic},
		{"bad qos", "graylogic/x", nil, 3, ErrInvalidQoS},
		{"too large", "graylogic/x", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := newClient(testConfig())
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 0, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("a", 3, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v", err)
	}
	if err := c.Subscribe("a", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
}

func TestDispatch_RecoversAndLogs(t *testing.T) {
	c := newClient(testConfig())
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "t", nil)

	if len(logger.errors) != 1 || len(logger.warns) != 1 {
		t.Errorf("errors = %v, warns = %v", logger.errors, logger.warns)
	}
}

func TestClose_Nil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
