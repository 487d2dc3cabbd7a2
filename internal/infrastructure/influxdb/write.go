package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteActuatorState records an actuator's state after a change.
// source says who caused it, e.g. "api", "mqtt" or "automation".
func (c *Client) WriteActuatorState(actuatorID, kind string, on bool, source string) {
	state := 0
	if on {
		state = 1
	}
	c.WritePoint("actuator_state",
		map[string]string{
			"actuator_id": actuatorID,
			"kind":        kind,
			"source":      source,
		},
		map[string]any{"state": state},
		time.Now(),
	)
}

// WriteAutomationFired records an automation switching its targets.
func (c *Client) WriteAutomationFired(automationID string, on bool, targets int) {
	c.WritePoint("automation_fired",
		map[string]string{"automation_id": automationID},
		map[string]any{"state": on, "target_count": targets},
		time.Now(),
	)
}

// WritePoint queues a point. It is dropped silently after Close.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if c == nil || c.closed.Load() {
		return
	}
	c.points.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}

// Flush sends queued points now.
func (c *Client) Flush() {
	if c == nil || c.closed.Load() {
		return
	}
	c.points.Flush()
}
