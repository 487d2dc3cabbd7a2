package rfsocket

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/mqtt"
)

// Publisher is the part of the MQTT client the transmitter needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger defines the logging interface used by MQTTTransmitter.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// transmitMessage is the JSON payload published to the RF gateway.
type transmitMessage struct {
	Codes   []Code    `json:"codes"`
	Repeats int       `json:"repeats"`
	SentAt  time.Time `json:"sent_at"`
}

// MQTTTransmitter hands code sequences to an RF gateway over MQTT. The
// gateway subscribes to graylogic/rf433/{gateway}/transmit and keys the
// radio.
type MQTTTransmitter struct {
	publisher Publisher
	topic     string
	logger    Logger
	now       func() time.Time
}

// NewMQTTTransmitter creates a transmitter for one gateway.
func NewMQTTTransmitter(publisher Publisher, gateway string, logger Logger) *MQTTTransmitter {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTTransmitter{
		publisher: publisher,
		topic:     mqtt.Topics{}.RF433Transmit(gateway),
		logger:    logger,
		now:       time.Now,
	}
}

// Topic returns the transmit topic.
func (t *MQTTTransmitter) Topic() string { return t.topic }

// Transmit publishes seq at QoS 0. Failures are logged; the channel is
// one-way and the next refresh resends anyway.
func (t *MQTTTransmitter) Transmit(seq CodeSequence) {
	payload, err := json.Marshal(transmitMessage{
		Codes:   seq.Codes,
		Repeats: seq.Repeats,
		SentAt:  t.now().UTC(),
	})
	if err != nil {
		t.logger.Warn("encoding RF transmission failed", "topic", t.topic, "error", err)
		return
	}
	if err := t.publisher.Publish(t.topic, payload, 0, false); err != nil {
		t.logger.Warn("RF transmission not published", "topic", t.topic, "error", err)
	}
}
