package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/database"
	"github.com/nerrad567/smartaura-core/migrations"
)

// Logger defines the logging interface used by Log.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

const observerTimeout = 2 * time.Second

// Open creates the store selected by cfg.Backend. The sqlite backend opens
// and migrates the database described by db.
func Open(ctx context.Context, cfg config.EventLogConfig, db config.DatabaseConfig) (Store, error) {
	switch cfg.Backend {
	case "jsonl", "":
		return NewJSONLStore(cfg.Dir)
	case "sqlite":
		conn, err := database.Open(db)
		if err != nil {
			return nil, err
		}
		if err := conn.Migrate(ctx, migrations.FS); err != nil {
			conn.Close() //nolint:errcheck // migration error takes precedence
			return nil, fmt.Errorf("migrating event log: %w", err)
		}
		s := NewSQLiteStore(conn.DB)
		s.closer = conn
		return s, nil
	default:
		return nil, fmt.Errorf("eventlog: unknown backend %q", cfg.Backend)
	}
}

// Log assigns IDs and timestamps and writes to a Store. It is an
// actuator.Observer.
type Log struct {
	store  Store
	limit  int
	clock  func() time.Time
	logger Logger
}

// New wraps store. limit caps list results; non-positive means no cap.
func New(store Store, limit int) *Log {
	return &Log{store: store, limit: limit, clock: time.Now, logger: noopLogger{}}
}

// SetLogger sets the logger used for write failures.
func (l *Log) SetLogger(logger Logger) {
	l.logger = logger
}

// Record appends a system event.
func (l *Log) Record(ctx context.Context, typ Type, message string) (Entry, error) {
	if !typ.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	e := Entry{
		ID:        "evt-" + uuid.NewString(),
		Timestamp: l.clock().UTC(),
		Type:      typ,
		Message:   message,
	}
	if err := l.store.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// RecordQA appends an assistant exchange.
func (l *Log) RecordQA(ctx context.Context, query, response string) error {
	return l.store.AppendQA(ctx, QA{
		ID:        "qa-" + uuid.NewString(),
		Timestamp: l.clock().UTC(),
		Query:     query,
		Response:  response,
	})
}

// Events returns recent events, newest first.
func (l *Log) Events(ctx context.Context) ([]Entry, error) {
	return l.store.List(ctx, l.limit)
}

// QAs returns recent assistant exchanges, newest first.
func (l *Log) QAs(ctx context.Context) ([]QA, error) {
	return l.store.ListQA(ctx, l.limit)
}

// Close closes the store.
func (l *Log) Close() error {
	return l.store.Close()
}

// ActuatorChanged records a device event for each actuator change.
func (l *Log) ActuatorChanged(c actuator.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), observerTimeout)
	defer cancel()
	if _, err := l.Record(ctx, TypeDevice, DescribeChange(c)); err != nil {
		l.logger.Warn("recording device event failed", "device", c.Device.ID, "error", err)
	}
}

// DescribeChange renders a change as a log message, e.g.
// "Living Room AC set to 22 (voice)".
func DescribeChange(c actuator.Change) string {
	name := c.Device.Name
	if name == "" {
		name = c.Device.ID
	}

	var what string
	v, hasSetting := c.Device.SettingValue()
	switch {
	case c.Device.On && !c.Previous.On && hasSetting:
		what = fmt.Sprintf("turned on at %d", v)
	case c.Device.On && !c.Previous.On:
		what = "turned on"
	case !c.Device.On:
		what = "turned off"
	case hasSetting:
		what = fmt.Sprintf("set to %d", v)
	default:
		what = "updated"
	}
	return fmt.Sprintf("%s %s (%s)", name, what, c.Source)
}
