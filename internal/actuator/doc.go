// Package actuator provides the commandable outputs of the controller.
//
// A Socket is a binary actuator driving one port of an RF socket
// controller. It carries persisted settings (IsEnabled, Caption), notifies
// observers after every successful command, and exposes status and command
// endpoints on the API:
//
//	GET  /actuators/{id}           status
//	POST /actuators/{id}           {"state": "on" | "off" | "toggle"}
//	GET  /actuators/{id}/settings  settings snapshot
//	POST /actuators/{id}/settings  settings update
package actuator
