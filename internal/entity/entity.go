package entity

import (
	"context"
	"net/http"
)

// Kind is the concrete-kind discriminant of an entity, e.g. "Socket".
type Kind string

// Kinded is implemented by everything that can be stored in a Registry.
type Kinded interface {
	Kind() Kind
}

// Router is the dispatch handle entities register their endpoints on.
// Patterns are relative to the API root (e.g. "/actuators/{id}").
type Router interface {
	Get(pattern string, handler http.HandlerFunc)
	Post(pattern string, handler http.HandlerFunc)
}

// SettingsLoader is implemented by entities with persisted settings.
type SettingsLoader interface {
	LoadSettings(ctx context.Context) error
}

// APIExposer is implemented by entities that publish their own endpoints.
type APIExposer interface {
	ExposeToAPI(router Router)
}

// Device is a hardware-facing component such as an RF gateway controller.
type Device interface {
	Kinded
	ID() DeviceID
}

// Actuator is a commandable output.
type Actuator interface {
	Kinded
	SettingsLoader
	APIExposer
	ID() ActuatorID
}

// Area groups actuators, typically a room.
type Area interface {
	Kinded
	SettingsLoader
	APIExposer
	ID() AreaID
	Actuators() []ActuatorID
}

// Automation reacts to time or state and drives actuators.
type Automation interface {
	Kinded
	SettingsLoader
	ID() AutomationID
}
