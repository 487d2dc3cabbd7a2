// Package api implements the HTTP transport of the controller.
//
// This package provides:
//   - A Dispatcher that entities register their endpoints on, mounted
//     under /api/v1, which accepts registrations before and after binding
//   - A WebSocket hub broadcasting controller events on GET /ws
//   - JWT bearer authentication of mutating requests
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - JSON response helpers mapping the apperr taxonomy to status codes
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	server.Dispatcher().Get("/areas/kitchen", handler)
//	server.Start(ctx) // binds synchronously, serves in the background
//	defer server.Close()
//
// # Events
//
// Clients send {"type":"subscribe","id":"1","channels":["actuator.*"]} and
// receive {"type":"event","channel":"actuator.state_changed","time":...,
// "data":{...}} for every matching broadcast.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
