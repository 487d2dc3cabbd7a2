package mqtt

import "strings"

// TopicPrefix is the root of every controller topic.
const TopicPrefix = "graylogic"

// Topics builds controller MQTT topics.
//
//	mqtt.Topics{}.ActuatorState("socket-bench")
//	// "graylogic/actuator/socket-bench/state"
type Topics struct{}

// RF433Transmit is where a gateway receives code sequences to send.
func (Topics) RF433Transmit(gateway string) string {
	return TopicPrefix + "/rf433/" + gateway + "/transmit"
}

// ActuatorState carries an actuator's state after each change.
func (Topics) ActuatorState(actuatorID string) string {
	return TopicPrefix + "/actuator/" + actuatorID + "/state"
}

// ActuatorCommand is where other systems command an actuator.
func (Topics) ActuatorCommand(actuatorID string) string {
	return TopicPrefix + "/actuator/" + actuatorID + "/set"
}

// AllActuatorCommands matches every actuator command topic.
func (Topics) AllActuatorCommands() string {
	return TopicPrefix + "/actuator/+/set"
}

// ParseActuatorCommand extracts the actuator id from a command topic.
func (Topics) ParseActuatorCommand(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, TopicPrefix+"/actuator/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/set")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// AutomationFired announces an automation switching its targets.
func (Topics) AutomationFired(automationID string) string {
	return TopicPrefix + "/automation/" + automationID + "/fired"
}

// SystemStatus carries the controller's online/offline status (retained,
// also the Last Will topic).
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}
