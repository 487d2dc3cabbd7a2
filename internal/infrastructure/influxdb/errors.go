package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	// Telemetry is optional, so callers treat it as "run without".
	ErrDisabled = errors.New("influxdb: disabled")

	// ErrUnreachable is returned when the server does not answer a ping
	// or reports itself unhealthy.
	ErrUnreachable = errors.New("influxdb: server unreachable")

	// ErrClosed is returned by HealthCheck after Close.
	ErrClosed = errors.New("influxdb: client closed")
)
