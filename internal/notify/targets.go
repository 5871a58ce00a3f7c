package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/smartaura-core/internal/automation"
	"github.com/nerrad567/smartaura-core/internal/eventlog"
)

// MessagePublisher publishes to a broker. *mqtt.Client satisfies it.
type MessagePublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTTarget publishes alerts as JSON.
type MQTTTarget struct {
	Publisher MessagePublisher
	Topic     string
	QoS       byte
}

// Name implements Target.
func (MQTTTarget) Name() string { return "mqtt" }

// Deliver implements Target.
func (t MQTTTarget) Deliver(_ context.Context, a automation.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}
	return t.Publisher.Publish(t.Topic, payload, t.QoS, false)
}

// Recorder appends to the event log. *eventlog.Log satisfies it.
type Recorder interface {
	Record(ctx context.Context, typ eventlog.Type, message string) (eventlog.Entry, error)
}

// EventLogTarget records alerts as security events.
type EventLogTarget struct {
	Log Recorder
}

// Name implements Target.
func (EventLogTarget) Name() string { return "eventlog" }

// Deliver implements Target.
func (t EventLogTarget) Deliver(ctx context.Context, a automation.Alert) error {
	_, err := t.Log.Record(ctx, eventlog.TypeSecurity, a.Message)
	return err
}

// Broadcaster pushes to dashboard clients. *api.Hub satisfies it.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// AlertChannel is the websocket channel alerts are pushed on.
const AlertChannel = "automation.alert"

// BroadcastTarget pushes alerts to connected dashboards.
type BroadcastTarget struct {
	Hub Broadcaster
}

// Name implements Target.
func (BroadcastTarget) Name() string { return "websocket" }

// Deliver implements Target.
func (t BroadcastTarget) Deliver(_ context.Context, a automation.Alert) error {
	t.Hub.Broadcast(AlertChannel, a)
	return nil
}
