// Package mqttbridge connects the actuator registry and sensor cache to the
// MQTT bus.
//
// Outbound, every actuator change is published as a retained device state
// and every sensor poll as a retained sensor snapshot, so dashboards and
// other controllers see current values as soon as they subscribe.
//
// Inbound, commands on {prefix}/command/{device} are applied to the
// registry with source "mqtt". A payload is either plain text ("on", "off",
// or a number for the setting) or a JSON object:
//
//	{"on": true, "setting": 24}
//
// Commands are subject to the same validation as every other writer and
// never touch the automation guard.
package mqttbridge
