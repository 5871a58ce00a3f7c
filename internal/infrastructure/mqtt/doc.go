// Package mqtt connects SmartAura Core to an MQTT broker.
//
// The broker carries three kinds of traffic:
//   - retained state: device states, the latest sensor snapshot and the
//     core online/offline status (with a Last Will for crashes)
//   - events: unknown-occupant alerts and periodic telemetry documents
//   - inputs: device commands from other controllers and climate readings
//     from a remote DHT node
//
// All topics live under a configurable prefix, "smartaura" by default:
//
//	smartaura/system/status
//	smartaura/sensors/state
//	smartaura/device/{id}/state
//	smartaura/command/{id}
//	smartaura/alerts
//	smartaura/telemetry
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllDeviceCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
//
// Subscriptions are tracked and restored after a reconnect.
package mqtt
