package sensor

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Logger defines the logging interface used by the Cache.
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

// defaultReadTimeout bounds each individual reader call.
const defaultReadTimeout = 5 * time.Second

// Cache holds the latest Snapshot.
type Cache struct {
	readers     Readers
	latest      atomic.Pointer[Snapshot]
	readTimeout time.Duration
	logger      Logger
	now         func() time.Time

	hooksMu sync.RWMutex
	hooks   []func(Snapshot)
}

// NewCache creates a cache whose Latest is all-unknown until the first poll.
func NewCache(readers Readers) *Cache {
	c := &Cache{
		readers:     readers,
		readTimeout: defaultReadTimeout,
		logger:      noopLogger{},
		now:         time.Now,
	}
	c.latest.Store(&Snapshot{AirQuality: AirUnknown})
	return c
}

// SetLogger sets the logger for the cache.
func (c *Cache) SetLogger(logger Logger) {
	c.logger = logger
}

// SetReadTimeout changes the per-reader timeout.
func (c *Cache) SetReadTimeout(d time.Duration) {
	if d > 0 {
		c.readTimeout = d
	}
}

// OnUpdate registers fn to be called with every new snapshot.
func (c *Cache) OnUpdate(fn func(Snapshot)) {
	c.hooksMu.Lock()
	c.hooks = append(c.hooks, fn)
	c.hooksMu.Unlock()
}

// Latest returns the most recent snapshot without blocking.
func (c *Cache) Latest() Snapshot {
	return *c.latest.Load()
}

// Poll reads every sensor once, replaces the latest snapshot and returns it.
// Read failures are logged and leave the field unknown.
func (c *Cache) Poll(ctx context.Context) Snapshot {
	snap := Snapshot{AirQuality: AirUnknown}

	if r := c.readers.Climate; r != nil {
		var climate Climate
		err := c.read(ctx, "climate", func(ctx context.Context) error {
			var err error
			climate, err = r.ReadClimate(ctx)
			return err
		})
		if err == nil {
			if t, ok := finite(climate.TemperatureC); ok {
				snap.Temperature = &t
			}
			if h, ok := finite(climate.HumidityPct); ok {
				snap.Humidity = &h
			}
		}
	}

	if r := c.readers.AirQuality; r != nil {
		var aq AirQuality
		err := c.read(ctx, "air_quality", func(ctx context.Context) error {
			var err error
			aq, err = r.ReadAirQuality(ctx)
			return err
		})
		if err == nil && (aq == AirGood || aq == AirPoor) {
			snap.AirQuality = aq
		}
	}

	if r := c.readers.Motion; r != nil {
		var motion bool
		err := c.read(ctx, "motion", func(ctx context.Context) error {
			var err error
			motion, err = r.ReadMotion(ctx)
			return err
		})
		if err == nil {
			snap.Motion = &motion
		}
	}

	snap.CapturedAt = c.now()
	c.latest.Store(&snap)

	c.hooksMu.RLock()
	hooks := slices.Clone(c.hooks)
	c.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(snap)
	}
	return snap
}

// read runs one reader call with a timeout, recovering panics from driver
// code, and logs any failure.
func (c *Cache) read(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reader panicked: %v", p)
		}
		if err != nil {
			c.logger.Warn("sensor read failed", "sensor", name, "error", err)
		}
	}()
	return fn(ctx)
}

// Run polls immediately and then every interval until ctx is cancelled.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	c.logger.Info("sensor polling started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			c.Poll(ctx)
		}

		select {
		case <-ctx.Done():
			c.logger.Info("sensor polling stopped")
			return
		case <-ticker.C:
		}
	}
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
