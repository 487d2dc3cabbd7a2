package entity

import (
	"fmt"
	"strings"
)

// DeviceID identifies a device (a hardware controller such as an RF gateway).
type DeviceID string

// ActuatorID identifies an actuator (something that can be commanded).
type ActuatorID string

// AreaID identifies an area (a room or zone grouping actuators).
type AreaID string

// AutomationID identifies an automation.
type AutomationID string

func (id DeviceID) String() string     { return string(id) }
func (id ActuatorID) String() string   { return string(id) }
func (id AreaID) String() string       { return string(id) }
func (id AutomationID) String() string { return string(id) }

// NewDeviceID validates and returns a DeviceID.
func NewDeviceID(value string) (DeviceID, error) {
	v, err := normaliseID(value)
	return DeviceID(v), err
}

// NewActuatorID validates and returns an ActuatorID.
func NewActuatorID(value string) (ActuatorID, error) {
	v, err := normaliseID(value)
	return ActuatorID(v), err
}

// NewAreaID validates and returns an AreaID.
func NewAreaID(value string) (AreaID, error) {
	v, err := normaliseID(value)
	return AreaID(v), err
}

// NewAutomationID validates and returns an AutomationID.
func NewAutomationID(value string) (AutomationID, error) {
	v, err := normaliseID(value)
	return AutomationID(v), err
}

// normaliseID trims surrounding whitespace and rejects empty identifiers.
func normaliseID(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, value)
	}
	return v, nil
}
