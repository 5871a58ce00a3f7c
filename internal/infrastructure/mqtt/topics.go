package mqtt

import "strings"

// DefaultPrefix is the topic root used when none is configured.
const DefaultPrefix = "smartaura"

// Topics builds SmartAura topic names under a common prefix.
//
//	t := mqtt.NewTopics("smartaura")
//	t.DeviceState("kitchen_light") // smartaura/device/kitchen_light/state
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix. Surrounding slashes are
// trimmed and an empty prefix falls back to DefaultPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultPrefix
	}
	return t.prefix
}

func (t Topics) join(parts ...string) string {
	return t.Prefix() + "/" + strings.Join(parts, "/")
}

// SystemStatus is the retained online/offline topic, also used for the LWT.
func (t Topics) SystemStatus() string { return t.join("system", "status") }

// SensorState carries the latest sensor snapshot, retained.
func (t Topics) SensorState() string { return t.join("sensors", "state") }

// DeviceState carries one device's state, retained.
func (t Topics) DeviceState(id string) string { return t.join("device", id, "state") }

// AllDeviceStates matches every DeviceState topic.
func (t Topics) AllDeviceStates() string { return t.join("device", "+", "state") }

// DeviceCommand is where other controllers send commands for a device.
func (t Topics) DeviceCommand(id string) string { return t.join("command", id) }

// AllDeviceCommands matches every DeviceCommand topic.
func (t Topics) AllDeviceCommands() string { return t.join("command", "+") }

// Alerts carries unknown-occupant alerts.
func (t Topics) Alerts() string { return t.join("alerts") }

// Telemetry carries the periodic cloud telemetry document.
func (t Topics) Telemetry() string { return t.join("telemetry") }

// DeviceFromCommand extracts the device id from a DeviceCommand topic.
func (t Topics) DeviceFromCommand(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.join("command")+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
