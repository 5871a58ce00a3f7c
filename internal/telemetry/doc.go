// Package telemetry periodically collects sensor and device state into one
// Document and fans it out to sinks: the MQTT cloud topic, InfluxDB and the
// ClickHouse archive.
//
// A failing sink is logged and does not affect the others or the next
// interval.
package telemetry
