// Package database opens the SQLite database used by the sqlite event log
// backend and applies its schema migrations.
//
// The connection is limited to a single writer, as SQLite requires. WAL
// journalling lets dashboard reads proceed while the coordinator appends.
//
// Migrations are plain SQL files named YYYYMMDD_HHMMSS_name.up.sql with an
// optional matching .down.sql, read from an fs.FS (normally the embedded
// migrations package). Each migration runs in its own transaction and is
// recorded in schema_migrations.
package database
