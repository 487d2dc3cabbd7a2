// Package area groups actuators into rooms or zones.
//
// An Area holds an ordered list of actuator identifiers and persisted
// settings (Caption, SortValue). It exposes its membership and settings on
// the API:
//
//	GET  /areas/{id}           caption, sort value and actuators
//	GET  /areas/{id}/settings  settings snapshot
//	POST /areas/{id}/settings  settings update
package area
