// Package clickhouse archives sensor snapshots and device states in
// ClickHouse for long-term analysis.
//
// Tables are created on Open if missing. Inserts are plain parameterised
// statements; the archive is written at telemetry cadence, so no client
// side batching is done.
package clickhouse
