// Package influxdb records actuator and automation telemetry in InfluxDB v2.
//
// Writes are non-blocking and batched by the client library; failed batches
// are reported through SetOnError. Telemetry is optional: with
// influxdb.enabled false, Connect returns ErrDisabled and the controller
// runs without it.
//
// Measurements:
//   - actuator_state: tags actuator_id, kind, source; field state (0 or 1)
//   - automation_fired: tags automation_id; fields target_count, state
package influxdb
