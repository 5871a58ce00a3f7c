// Package eventlog keeps the append-only system event log and the voice
// question/answer log shown on the dashboard.
//
// Two Store backends exist: JSON lines files (the default) and SQLite.
// Log wraps a Store with ID and timestamp assignment and turns actuator
// changes and alerts into entries.
package eventlog
