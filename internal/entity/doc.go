// Package entity provides identifiers, capability interfaces and the typed
// registry that holds every addressable entity of the controller.
//
// # Identifiers
//
// Each broad entity kind has its own identifier type (DeviceID, ActuatorID,
// AreaID, AutomationID). The Go type system keeps them apart: an AreaID can
// never be passed where an ActuatorID is expected.
//
// # Registry
//
// Registry stores entries of one broad kind in insertion order. Every entry
// carries the concrete-kind discriminant reported by the entity at
// registration time, so kind-filtered lookups never inspect runtime types:
//
//	actuators := entity.NewRegistry[entity.ActuatorID, entity.Actuator]()
//	actuators.AddOrUpdate(id, socket)
//	s, err := entity.Typed[*actuator.Socket](actuators, id, actuator.KindSocket)
//
// Thread Safety: all Registry methods are safe for concurrent use. Inserts
// are expected only during controller initialisation; reads may happen from
// request handlers and timer callbacks afterwards.
package entity
