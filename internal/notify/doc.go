// Package notify delivers unknown-occupant alerts to every configured
// target: the MQTT alert topic, the security event log and connected
// dashboards.
//
// Alerts are throttled with a token bucket so a stranger standing in front
// of the camera produces one alert per interval rather than one per cycle.
package notify
