package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"
)

// SQLiteStore keeps entries in the events and voice_log tables. The schema
// comes from the migrations package.
type SQLiteStore struct {
	db     *sql.DB
	closer io.Closer
}

// NewSQLiteStore wraps a migrated database. Close does not close db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, e.Type)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, type, message, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Message, formatTime(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// AppendQA implements Store.
func (s *SQLiteStore) AppendQA(ctx context.Context, qa QA) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voice_log (id, query, response, created_at) VALUES (?, ?, ?, ?)`,
		qa.ID, qa.Query, qa.Response, formatTime(qa.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("inserting voice log: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, message, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Message, &ts); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return out, nil
}

// ListQA implements Store.
func (s *SQLiteStore) ListQA(ctx context.Context, limit int) ([]QA, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, response, created_at FROM voice_log ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying voice log: %w", err)
	}
	defer rows.Close()

	out := []QA{}
	for rows.Next() {
		var (
			qa QA
			ts string
		)
		if err := rows.Scan(&qa.ID, &qa.Query, &qa.Response, &ts); err != nil {
			return nil, fmt.Errorf("scanning voice log: %w", err)
		}
		if qa.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, qa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating voice log: %w", err)
	}
	return out, nil
}

// Close implements Store. It closes the database only when the store
// opened it.
func (s *SQLiteStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// sqlLimit maps "no limit" to SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// timeLayout is fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
