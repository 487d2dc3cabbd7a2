// Package mqtt connects the controller to the site MQTT broker.
//
// The broker carries three kinds of traffic for the controller:
//   - RF transmissions handed to 433 MHz gateways
//     (graylogic/rf433/{gateway}/transmit)
//   - actuator state published after every command
//     (graylogic/actuator/{id}/state, retained)
//   - actuator commands from other systems
//     (graylogic/actuator/{id}/set)
//
// Client wraps paho.mqtt.golang with auto-reconnect, a Last Will on
// graylogic/system/status, and subscriptions that are restored after a
// reconnect. Message handlers run with panic recovery.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllActuatorCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        id, _ := mqtt.Topics{}.ParseActuatorCommand(topic)
//	        return handle(id, payload)
//	    })
package mqtt
