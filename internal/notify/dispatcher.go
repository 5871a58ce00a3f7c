package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/smartaura-core/internal/automation"
)

// Logger defines the logging interface used by the Dispatcher.
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

// Target delivers an alert somewhere.
type Target interface {
	Name() string
	Deliver(ctx context.Context, a automation.Alert) error
}

// Stats counts dispatched and throttled alerts.
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Throttled uint64 `json:"throttled"`
}

// Dispatcher implements automation.Alerter.
type Dispatcher struct {
	limiter *rate.Limiter
	targets []Target
	clock   func() time.Time
	logger  Logger

	mu    sync.Mutex
	stats Stats
}

// NewDispatcher allows one alert per every, with a burst of one. A
// non-positive every disables throttling.
func NewDispatcher(every time.Duration, targets ...Target) *Dispatcher {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	return &Dispatcher{
		limiter: rate.NewLimiter(limit, 1),
		targets: targets,
		clock:   time.Now,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Alert sends a to every target unless throttled. A throttled alert is not
// an error. Target failures are joined.
func (d *Dispatcher) Alert(ctx context.Context, a automation.Alert) error {
	if !d.limiter.AllowN(d.clock(), 1) {
		d.mu.Lock()
		d.stats.Throttled++
		d.mu.Unlock()
		d.logger.Debug("alert throttled", "alert_id", a.ID)
		return nil
	}

	d.mu.Lock()
	d.stats.Delivered++
	d.mu.Unlock()
	d.logger.Warn("unknown occupant alert", "alert_id", a.ID, "message", a.Message)

	var errs []error
	for _, t := range d.targets {
		if err := t.Deliver(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Stats returns the counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
