package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/sensor"
)

// Logger defines the logging interface used by the Publisher.
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

const defaultSinkTimeout = 5 * time.Second

// Document is one telemetry sample.
type Document struct {
	Site              string           `json:"site"`
	Timestamp         time.Time        `json:"timestamp"`
	Sensors           sensor.Snapshot  `json:"sensors"`
	Devices           []actuator.State `json:"devices"`
	AutomationEngaged bool             `json:"automation_engaged"`
}

// Sink receives documents.
type Sink interface {
	Name() string
	Send(ctx context.Context, doc Document) error
}

// SensorSource provides the latest sensor snapshot.
type SensorSource interface {
	Latest() sensor.Snapshot
}

// DeviceSource provides the current device snapshot.
type DeviceSource interface {
	Snapshot() actuator.Snapshot
}

// Publisher collects and sends documents.
type Publisher struct {
	site        string
	sensors     SensorSource
	devices     DeviceSource
	sinks       []Sink
	sinkTimeout time.Duration
	clock       func() time.Time
	logger      Logger
}

// NewPublisher creates a publisher for site.
func NewPublisher(site string, sensors SensorSource, devices DeviceSource, sinks ...Sink) *Publisher {
	return &Publisher{
		site:        site,
		sensors:     sensors,
		devices:     devices,
		sinks:       sinks,
		sinkTimeout: defaultSinkTimeout,
		clock:       time.Now,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Sinks returns the number of configured sinks.
func (p *Publisher) Sinks() int {
	return len(p.sinks)
}

// Collect builds a document from the current state.
func (p *Publisher) Collect() Document {
	snap := p.devices.Snapshot()
	return Document{
		Site:              p.site,
		Timestamp:         p.clock().UTC(),
		Sensors:           p.sensors.Latest(),
		Devices:           snap.Devices,
		AutomationEngaged: snap.AutomationEngaged,
	}
}

// PublishOnce collects a document and sends it to every sink. The returned
// error joins the failures of individual sinks.
func (p *Publisher) PublishOnce(ctx context.Context) error {
	doc := p.Collect()

	var errs []error
	for _, s := range p.sinks {
		if err := p.send(ctx, s, doc); err != nil {
			p.logger.Warn("telemetry sink failed", "sink", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) send(ctx context.Context, s Sink, doc Document) (err error) {
	ctx, cancel := context.WithTimeout(ctx, p.sinkTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return s.Send(ctx, doc)
}

// Run publishes every interval until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	p.logger.Info("telemetry publisher started", "interval", interval, "sinks", len(p.sinks))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("telemetry publisher stopped")
			return
		case <-ticker.C:
			_ = p.PublishOnce(ctx)
		}
	}
}
