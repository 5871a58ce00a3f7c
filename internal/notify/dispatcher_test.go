package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/smartaura-core/internal/automation"
	"github.com/nerrad567/smartaura-core/internal/eventlog"
)

type countingTarget struct {
	alerts []automation.Alert
	err    error
}

func (c *countingTarget) Name() string { return "counting" }

func (c *countingTarget) Deliver(_ context.Context, a automation.Alert) error {
	c.alerts = append(c.alerts, a)
	return c.err
}

func testAlert(id string) automation.Alert {
	return automation.Alert{ID: id, Kind: "unknown_occupant", Message: "Unknown person detected at home", At: time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC)}
}

func TestDispatcher_Throttles(t *testing.T) {
	target := &countingTarget{}
	d := NewDispatcher(time.Minute, target)
	now := time.Date(2026, 10, 18, 22, 0, 0, 0, time.UTC)
	d.clock = func() time.Time { return now }

	steps := []struct {
		advance time.Duration
		want    int
	}{
		{0, 1},
		{2 * time.Second, 1},
		{30 * time.Second, 1},
		{30 * time.Second, 2},
		{time.Second, 2},
	}
	for i, s := range steps {
		now = now.Add(s.advance)
		if err := d.Alert(context.Background(), testAlert("a")); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if len(target.alerts) != s.want {
			t.Errorf("step %d: delivered %d, want %d", i, len(target.alerts), s.want)
		}
	}
	if st := d.Stats(); st.Delivered != 2 || st.Throttled != 3 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestDispatcher_NoThrottle(t *testing.T) {
	target := &countingTarget{}
	d := NewDispatcher(0, target)
	for i := 0; i < 3; i++ {
		_ = d.Alert(context.Background(), testAlert("a"))
	}
	if len(target.alerts) != 3 {
		t.Errorf("delivered %d, want 3", len(target.alerts))
	}
}

func TestDispatcher_TargetFailureDoesNotStopOthers(t *testing.T) {
	failing := &countingTarget{err: errors.New("offline")}
	ok := &countingTarget{}
	d := NewDispatcher(0, failing, ok)

	if err := d.Alert(context.Background(), testAlert("a")); err == nil {
		t.Error("expected error from failing target")
	}
	if len(ok.alerts) != 1 {
		t.Error("second target skipped")
	}
}

type fakeBroker struct {
	topic   string
	payload []byte
}

func (f *fakeBroker) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.topic, f.payload = topic, payload
	return nil
}

type fakeHub struct {
	channel string
	payload any
}

func (f *fakeHub) Broadcast(channel string, payload any) {
	f.channel, f.payload = channel, payload
}

func TestTargets(t *testing.T) {
	ctx := context.Background()
	store, err := eventlog.NewJSONLStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	log := eventlog.New(store, 10)
	broker := &fakeBroker{}
	hub := &fakeHub{}

	d := NewDispatcher(0,
		MQTTTarget{Publisher: broker, Topic: "smartaura/alerts", QoS: 1},
		EventLogTarget{Log: log},
		BroadcastTarget{Hub: hub},
	)
	if err := d.Alert(ctx, testAlert("alert-1")); err != nil {
		t.Fatal(err)
	}

	var got automation.Alert
	if err := json.Unmarshal(broker.payload, &got); err != nil || got.ID != "alert-1" || broker.topic != "smartaura/alerts" {
		t.Errorf("mqtt: topic %q payload %s (%v)", broker.topic, broker.payload, err)
	}

	events, err := log.Events(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != eventlog.TypeSecurity || events[0].Message != "Unknown person detected at home" {
		t.Errorf("events = %+v", events)
	}

	if a, ok := hub.payload.(automation.Alert); hub.channel != AlertChannel || !ok || a.ID != "alert-1" {
		t.Errorf("hub got %q %+v", hub.channel, hub.payload)
	}
}
