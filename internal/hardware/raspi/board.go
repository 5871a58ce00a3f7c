package raspi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/gpio"
	gobotraspi "gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
	"github.com/nerrad567/smartaura-core/internal/sensor"
)

// ErrNoPin is returned when reading an input that has no pin assigned.
var ErrNoPin = errors.New("raspi: input pin not configured")

// Logger defines the logging interface used by the Board.
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

// Relay switches one output. *gpio.RelayDriver satisfies it.
type Relay interface {
	On() error
	Off() error
}

// DigitalReader reads an input pin. *raspi.Adaptor satisfies it.
type DigitalReader interface {
	DigitalRead(pin string) (int, error)
}

// Board owns the relays and input pins.
type Board struct {
	relays        map[string]Relay
	inputs        DigitalReader
	motionPin     string
	airQualityPin string
	finalize      func() error
	logger        Logger

	mu sync.Mutex
}

// Open connects the raspi adaptor and starts a relay driver for every
// device with a pin.
func Open(cfg config.GPIOConfig, devices []config.DeviceConfig) (*Board, error) {
	adaptor := gobotraspi.NewAdaptor()
	if err := adaptor.Connect(); err != nil {
		return nil, fmt.Errorf("connecting raspi adaptor: %w", err)
	}

	relays := make(map[string]Relay)
	for _, d := range devices {
		if d.Pin == "" {
			continue
		}
		relay := gpio.NewRelayDriver(adaptor, d.Pin)
		if err := relay.Start(); err != nil {
			_ = adaptor.Finalize()
			return nil, fmt.Errorf("starting relay for %s on pin %s: %w", d.ID, d.Pin, err)
		}
		relays[d.ID] = relay
	}

	b := newBoard(relays, adaptor, cfg.MotionPin, cfg.AirQualityPin)
	b.finalize = adaptor.Finalize
	return b, nil
}

func newBoard(relays map[string]Relay, inputs DigitalReader, motionPin, airQualityPin string) *Board {
	return &Board{
		relays:        relays,
		inputs:        inputs,
		motionPin:     motionPin,
		airQualityPin: airQualityPin,
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger.
func (b *Board) SetLogger(logger Logger) {
	b.logger = logger
}

// Relays returns the number of driven devices.
func (b *Board) Relays() int {
	return len(b.relays)
}

// Sync drives every relay to the given states.
func (b *Board) Sync(states []actuator.State) error {
	var errs []error
	for _, s := range states {
		if err := b.set(s.ID, s.On); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ActuatorChanged switches the device's relay.
func (b *Board) ActuatorChanged(c actuator.Change) {
	if c.Previous.On == c.Device.On {
		return
	}
	if err := b.set(c.Device.ID, c.Device.On); err != nil {
		b.logger.Error("relay write failed", "device", c.Device.ID, "error", err)
	}
}

func (b *Board) set(id string, on bool) error {
	relay, ok := b.relays[id]
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if on {
		err = relay.On()
	} else {
		err = relay.Off()
	}
	if err != nil {
		return fmt.Errorf("relay %s: %w", id, err)
	}
	b.logger.Debug("relay switched", "device", id, "on", on)
	return nil
}

// ReadMotion implements sensor.MotionReader.
func (b *Board) ReadMotion(ctx context.Context) (bool, error) {
	v, err := b.read(ctx, b.motionPin)
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// ReadAirQuality implements sensor.AirQualityReader.
func (b *Board) ReadAirQuality(ctx context.Context) (sensor.AirQuality, error) {
	v, err := b.read(ctx, b.airQualityPin)
	if err != nil {
		return sensor.AirUnknown, err
	}
	if v == 1 {
		return sensor.AirPoor, nil
	}
	return sensor.AirGood, nil
}

func (b *Board) read(ctx context.Context, pin string) (int, error) {
	if pin == "" {
		return 0, ErrNoPin
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	v, err := b.inputs.DigitalRead(pin)
	if err != nil {
		return 0, fmt.Errorf("reading pin %s: %w", pin, err)
	}
	return v, nil
}

// Close switches every relay off and releases the adaptor.
func (b *Board) Close() error {
	var errs []error
	for id := range b.relays {
		if err := b.set(id, false); err != nil {
			errs = append(errs, err)
		}
	}
	if b.finalize != nil {
		if err := b.finalize(); err != nil {
			errs = append(errs, fmt.Errorf("finalizing raspi adaptor: %w", err))
		}
	}
	return errors.Join(errs...)
}
