// Package topology builds the controller's domain from configuration.
//
// Builder implements controller.Initializer: during DomainInitialize it
// creates one rfsocket.Controller per RF gateway, a Socket actuator per
// configured socket, the areas, and the time-window automations, then wires
// state observers to MQTT, InfluxDB and the WebSocket hub.
//
// A bad entry is skipped and reported; the rest of the topology is still
// built so one typo does not take the whole installation offline.
package topology
