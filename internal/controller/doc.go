// Package controller sequences the startup of the controller runtime and
// owns its entity registries.
//
// Run executes a fixed phase sequence:
//
//	TransportReady    create the HTTP server and its dispatch handle
//	LoggingReady      build the configured logger; expose GET /api/v1/log
//	TimerReady        create the periodic scheduler (nothing fires yet)
//	DomainInitialize  run the Initializer; failures are logged, not fatal
//	SettingsLoad      areas, actuators, automations; isolated per entity
//	TransportStart    bind the listener (and advertise over mDNS)
//	ApiExpose         controller routes, then areas, then actuators
//	Run               timer dispatch loop until the context is done
//
// Only an error or panic escaping the sequence itself is fatal. It is logged
// at ERROR through the configured logger and returned wrapped in ErrStartup,
// so the process exits non-zero with a durable record.
package controller
