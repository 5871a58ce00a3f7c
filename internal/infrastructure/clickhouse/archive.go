package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	chgo "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
)

// ErrDisabled is returned by Open when the archive is disabled.
var ErrDisabled = errors.New("clickhouse: disabled in configuration")

const defaultDialTimeout = 5 * time.Second

// Conn is the subset of a ClickHouse connection the archive uses.
// driver.Conn satisfies it.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

// SensorRow is one archived sensor snapshot. Nil fields are stored as NULL.
type SensorRow struct {
	Timestamp   time.Time
	Temperature *float64
	Humidity    *float64
	AirQuality  string
	Motion      *bool
}

// DeviceRow is one archived device state.
type DeviceRow struct {
	Timestamp         time.Time
	DeviceID          string
	Kind              string
	On                bool
	Setting           *int32
	AutomationEngaged bool
}

// Archive writes rows for one site.
type Archive struct {
	conn Conn
	site string
}

// Open connects, pings and creates the tables.
func Open(ctx context.Context, cfg config.ClickHouseConfig, site string) (*Archive, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	dial := time.Duration(cfg.DialTimeout) * time.Second
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	conn, err := chgo.Open(&chgo.Options{
		Addr: []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
		Auth: chgo.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: chgo.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: dial,
		Compression: &chgo.Compression{Method: chgo.CompressionLZ4},
	})
	if err != nil {
		return nil, fmt.Errorf("opening clickhouse: %w", err)
	}

	a := New(conn, site)
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging clickhouse: %w", err)
	}
	if err := a.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

// New wraps an open connection.
func New(conn Conn, site string) *Archive {
	return &Archive{conn: conn, site: site}
}

// InitSchema creates missing tables.
func (a *Archive) InitSchema(ctx context.Context) error {
	for _, stmt := range allTables() {
		if err := a.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating clickhouse table: %w", err)
		}
	}
	return nil
}

// InsertSensors archives one sensor snapshot.
func (a *Archive) InsertSensors(ctx context.Context, r SensorRow) error {
	err := a.conn.Exec(ctx, insertSensorReading,
		r.Timestamp, a.site, r.Temperature, r.Humidity, r.AirQuality, r.Motion)
	if err != nil {
		return fmt.Errorf("inserting sensor reading: %w", err)
	}
	return nil
}

// InsertDevice archives one device state.
func (a *Archive) InsertDevice(ctx context.Context, r DeviceRow) error {
	err := a.conn.Exec(ctx, insertDeviceState,
		r.Timestamp, a.site, r.DeviceID, r.Kind, r.On, r.Setting, r.AutomationEngaged)
	if err != nil {
		return fmt.Errorf("inserting device state for %s: %w", r.DeviceID, err)
	}
	return nil
}

// HealthCheck pings the server.
func (a *Archive) HealthCheck(ctx context.Context) error {
	if err := a.conn.Ping(ctx); err != nil {
		return fmt.Errorf("clickhouse health check failed: %w", err)
	}
	return nil
}

// Close closes the connection.
func (a *Archive) Close() error {
	if a.conn == nil {
		return nil
	}
	if err := a.conn.Close(); err != nil {
		return fmt.Errorf("closing clickhouse: %w", err)
	}
	return nil
}
