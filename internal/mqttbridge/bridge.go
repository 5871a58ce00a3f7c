package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smartaura-core/internal/sensor"
)

// ErrInvalidCommand is returned for payloads that name no action.
var ErrInvalidCommand = errors.New("mqttbridge: invalid command payload")

// Logger is the logging the bridge needs.
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

// Publisher sends messages to the broker. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Subscriber registers message handlers. *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Devices is the part of the actuator registry commands are applied to.
type Devices interface {
	Resolve(name string) (string, error)
	SetOn(id string, on bool, source actuator.Source) (actuator.State, error)
	SetSetting(id string, value int, source actuator.Source) (actuator.State, error)
	TurnOnAt(id string, value int, source actuator.Source) (actuator.State, error)
}

// Command is a decoded command payload. Nil fields are left unchanged.
type Command struct {
	On      *bool `json:"on"`
	Setting *int  `json:"setting"`
}

// queueSize bounds the state messages waiting for the broker.
const queueSize = 64

type outgoing struct {
	topic   string
	payload []byte
}

// Bridge publishes state to and applies commands from the broker.
//
// State publishes are queued and sent by Run, so a slow broker never blocks
// a registry write or a paho message handler.
type Bridge struct {
	pub     Publisher
	topics  mqtt.Topics
	qos     byte
	devices Devices
	logger  Logger
	out     chan outgoing
}

// New creates a bridge publishing with the given QoS.
func New(pub Publisher, topics mqtt.Topics, qos byte, devices Devices) *Bridge {
	return &Bridge{
		pub:     pub,
		topics:  topics,
		qos:     qos,
		devices: devices,
		logger:  noopLogger{},
		out:     make(chan outgoing, queueSize),
	}
}

// SetLogger sets the logger.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to the device command topics.
func (b *Bridge) Start(sub Subscriber) error {
	topic := b.topics.AllDeviceCommands()
	if err := sub.Subscribe(topic, b.qos, b.HandleCommand); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	b.logger.Info("listening for device commands", "topic", topic)
	return nil
}

// Run publishes queued state messages until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.out:
			if err := b.pub.Publish(msg.topic, msg.payload, b.qos, true); err != nil {
				b.logger.Debug("state not published", "topic", msg.topic, "error", err)
			}
		}
	}
}

// enqueue hands a retained message to Run. A full queue drops the message.
func (b *Bridge) enqueue(topic string, payload []byte) {
	select {
	case b.out <- outgoing{topic: topic, payload: payload}:
	default:
		b.logger.Warn("publish queue full, dropping state", "topic", topic)
	}
}

type deviceMessage struct {
	actuator.State
	Source actuator.Source `json:"source"`
}

// ActuatorChanged queues the new device state for a retained publish.
func (b *Bridge) ActuatorChanged(c actuator.Change) {
	payload, err := json.Marshal(deviceMessage{State: c.Device, Source: c.Source})
	if err != nil {
		b.logger.Error("encoding device state", "device", c.Device.ID, "error", err)
		return
	}
	b.enqueue(b.topics.DeviceState(c.Device.ID), payload)
}

// PublishSensors queues a sensor snapshot for a retained publish.
func (b *Bridge) PublishSensors(s sensor.Snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		b.logger.Error("encoding sensor snapshot", "error", err)
		return
	}
	b.enqueue(b.topics.SensorState(), payload)
}

// HandleCommand applies a command message. It has the signature of an
// mqtt.MessageHandler.
func (b *Bridge) HandleCommand(topic string, payload []byte) error {
	name, ok := b.topics.DeviceFromCommand(topic)
	if !ok {
		return fmt.Errorf("mqttbridge: not a command topic: %s", topic)
	}
	id, err := b.devices.Resolve(name)
	if err != nil {
		return fmt.Errorf("command for %q: %w", name, err)
	}
	cmd, err := ParseCommand(payload)
	if err != nil {
		return fmt.Errorf("command for %s: %w", id, err)
	}

	st, err := b.apply(id, cmd)
	if err != nil {
		return fmt.Errorf("command for %s: %w", id, err)
	}
	b.logger.Info("device command applied", "device", id, "on", st.On)
	return nil
}

func (b *Bridge) apply(id string, cmd Command) (actuator.State, error) {
	src := actuator.SourceMQTT
	switch {
	case cmd.On != nil && !*cmd.On:
		return b.devices.SetOn(id, false, src)
	case cmd.On != nil && cmd.Setting != nil:
		return b.devices.TurnOnAt(id, *cmd.Setting, src)
	case cmd.On != nil:
		return b.devices.SetOn(id, true, src)
	default:
		return b.devices.SetSetting(id, *cmd.Setting, src)
	}
}

// ParseCommand decodes a plain text or JSON command payload.
func ParseCommand(payload []byte) (Command, error) {
	text := strings.ToLower(strings.TrimSpace(string(payload)))
	on, off := true, false

	switch text {
	case "":
		return Command{}, ErrInvalidCommand
	case "on", "true":
		return Command{On: &on}, nil
	case "off", "false":
		return Command{On: &off}, nil
	}
	if n, err := strconv.Atoi(text); err == nil {
		return Command{Setting: &n}, nil
	}

	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if cmd.On == nil && cmd.Setting == nil {
		return Command{}, ErrInvalidCommand
	}
	return cmd, nil
}
