package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/clickhouse"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smartaura-core/internal/sensor"
)

type staticSensors sensor.Snapshot

func (s staticSensors) Latest() sensor.Snapshot { return sensor.Snapshot(s) }

type recordingSink struct {
	mu    sync.Mutex
	name  string
	docs  []Document
	err   error
	panic bool
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Send(_ context.Context, doc Document) error {
	if r.panic {
		panic("sink exploded")
	}
	r.mu.Lock()
	r.docs = append(r.docs, doc)
	r.mu.Unlock()
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func fixture(t *testing.T, sinks ...Sink) (*Publisher, *actuator.Registry) {
	t.Helper()
	reg, err := actuator.NewRegistry([]actuator.DeviceSpec{
		{ID: "kitchen_light", Kind: actuator.KindLight},
		{ID: "livingroom_ac", Kind: actuator.KindAC},
	})
	if err != nil {
		t.Fatal(err)
	}
	temp, motion := 29.0, true
	p := NewPublisher("home", staticSensors{Temperature: &temp, Motion: &motion, AirQuality: sensor.AirGood}, reg, sinks...)
	p.clock = func() time.Time { return time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC) }
	return p, reg
}

func TestCollect(t *testing.T) {
	p, reg := fixture(t)
	if _, err := reg.TurnOnAt("livingroom_ac", 22, actuator.SourceManual); err != nil {
		t.Fatal(err)
	}

	doc := p.Collect()
	if doc.Site != "home" || doc.Timestamp.Hour() != 20 {
		t.Errorf("header = %q %v", doc.Site, doc.Timestamp)
	}
	if len(doc.Devices) != 2 || !doc.Devices[1].On {
		t.Errorf("devices = %+v", doc.Devices)
	}
	if v, ok := doc.Sensors.TemperatureC(); !ok || v != 29 {
		t.Errorf("temperature = %v, %v", v, ok)
	}
}

func TestPublishOnce_SinkFailuresAreIsolated(t *testing.T) {
	good := &recordingSink{name: "good"}
	bad := &recordingSink{name: "bad", err: errors.New("broker down")}
	boom := &recordingSink{name: "boom", panic: true}
	p, _ := fixture(t, bad, boom, good)

	err := p.PublishOnce(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if good.count() != 1 || bad.count() != 1 {
		t.Errorf("deliveries good=%d bad=%d", good.count(), bad.count())
	}
}

func TestRun_PublishesUntilCancelled(t *testing.T) {
	sink := &recordingSink{name: "rec"}
	p, _ := fixture(t, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sink.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("publisher did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type fakeBroker struct {
	topic    string
	payload  []byte
	retained bool
}

func (f *fakeBroker) Publish(topic string, payload []byte, _ byte, retained bool) error {
	f.topic, f.payload, f.retained = topic, payload, retained
	return nil
}

func TestMQTTSink(t *testing.T) {
	broker := &fakeBroker{}
	p, _ := fixture(t, MQTTSink{Publisher: broker, Topic: "smartaura/telemetry", QoS: 1})
	if err := p.PublishOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if broker.topic != "smartaura/telemetry" || broker.retained {
		t.Errorf("published to %q retained=%v", broker.topic, broker.retained)
	}
	var doc Document
	if err := json.Unmarshal(broker.payload, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Site != "home" || len(doc.Devices) != 2 || doc.Sensors.AirQuality != sensor.AirGood {
		t.Errorf("document = %+v", doc)
	}
}

type fakePoints struct {
	sensors []influxdb.SensorReading
	devices []influxdb.DeviceReading
}

func (f *fakePoints) WriteSensors(r influxdb.SensorReading) { f.sensors = append(f.sensors, r) }
func (f *fakePoints) WriteDevice(r influxdb.DeviceReading)  { f.devices = append(f.devices, r) }

func TestInfluxSink(t *testing.T) {
	w := &fakePoints{}
	p, reg := fixture(t, InfluxSink{Writer: w})
	if _, err := reg.TurnOnAt("livingroom_ac", 25, actuator.SourceAutomation); err != nil {
		t.Fatal(err)
	}
	if err := p.PublishOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(w.sensors) != 1 || *w.sensors[0].Temperature != 29 || w.sensors[0].AirQuality != "Good" {
		t.Errorf("sensors = %+v", w.sensors)
	}
	if len(w.devices) != 2 || w.devices[1].Kind != "ac" || w.devices[1].Setting == nil || *w.devices[1].Setting != 25 {
		t.Errorf("devices = %+v", w.devices)
	}
}

type fakeRows struct {
	sensors int
	devices []clickhouse.DeviceRow
	fail    error
}

func (f *fakeRows) InsertSensors(context.Context, clickhouse.SensorRow) error {
	f.sensors++
	return f.fail
}

func (f *fakeRows) InsertDevice(_ context.Context, r clickhouse.DeviceRow) error {
	f.devices = append(f.devices, r)
	return nil
}

func TestArchiveSink(t *testing.T) {
	rows := &fakeRows{fail: errors.New("timeout")}
	p, reg := fixture(t, ArchiveSink{Writer: rows})
	if _, err := reg.TurnOnAt("livingroom_ac", 22, actuator.SourceManual); err != nil {
		t.Fatal(err)
	}

	if err := p.PublishOnce(context.Background()); err == nil {
		t.Error("sensor insert failure not reported")
	}
	if rows.sensors != 1 || len(rows.devices) != 2 {
		t.Fatalf("rows sensors=%d devices=%d", rows.sensors, len(rows.devices))
	}
	if rows.devices[0].Setting != nil {
		t.Errorf("light setting = %v, want nil", *rows.devices[0].Setting)
	}
	if s := rows.devices[1].Setting; s == nil || *s != 22 {
		t.Errorf("ac setting = %v", s)
	}
}
