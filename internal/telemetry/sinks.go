package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/smartaura-core/internal/infrastructure/clickhouse"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/influxdb"
)

// MessagePublisher publishes to a broker. *mqtt.Client satisfies it.
type MessagePublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes each document as JSON to a cloud topic.
type MQTTSink struct {
	Publisher MessagePublisher
	Topic     string
	QoS       byte
}

// Name implements Sink.
func (MQTTSink) Name() string { return "mqtt" }

// Send implements Sink.
func (s MQTTSink) Send(_ context.Context, doc Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding telemetry: %w", err)
	}
	return s.Publisher.Publish(s.Topic, payload, s.QoS, false)
}

// PointWriter queues InfluxDB points. *influxdb.Client satisfies it.
type PointWriter interface {
	WriteSensors(r influxdb.SensorReading)
	WriteDevice(r influxdb.DeviceReading)
}

// InfluxSink writes one sensors point and one point per device.
type InfluxSink struct {
	Writer PointWriter
}

// Name implements Sink.
func (InfluxSink) Name() string { return "influxdb" }

// Send implements Sink. Writes are asynchronous and never fail here.
func (s InfluxSink) Send(_ context.Context, doc Document) error {
	s.Writer.WriteSensors(influxdb.SensorReading{
		Temperature: doc.Sensors.Temperature,
		Humidity:    doc.Sensors.Humidity,
		AirQuality:  string(doc.Sensors.AirQuality),
		Motion:      doc.Sensors.Motion,
		At:          doc.Timestamp,
	})
	for _, d := range doc.Devices {
		s.Writer.WriteDevice(influxdb.DeviceReading{
			ID:      d.ID,
			Kind:    string(d.Kind),
			On:      d.On,
			Setting: d.Setting,
			At:      doc.Timestamp,
		})
	}
	return nil
}

// RowWriter inserts archive rows. *clickhouse.Archive satisfies it.
type RowWriter interface {
	InsertSensors(ctx context.Context, r clickhouse.SensorRow) error
	InsertDevice(ctx context.Context, r clickhouse.DeviceRow) error
}

// ArchiveSink inserts documents into the ClickHouse archive.
type ArchiveSink struct {
	Writer RowWriter
}

// Name implements Sink.
func (ArchiveSink) Name() string { return "clickhouse" }

// Send implements Sink. Every row is attempted even if one fails.
func (s ArchiveSink) Send(ctx context.Context, doc Document) error {
	errs := []error{s.Writer.InsertSensors(ctx, clickhouse.SensorRow{
		Timestamp:   doc.Timestamp,
		Temperature: doc.Sensors.Temperature,
		Humidity:    doc.Sensors.Humidity,
		AirQuality:  string(doc.Sensors.AirQuality),
		Motion:      doc.Sensors.Motion,
	})}
	for _, d := range doc.Devices {
		row := clickhouse.DeviceRow{
			Timestamp:         doc.Timestamp,
			DeviceID:          d.ID,
			Kind:              string(d.Kind),
			On:                d.On,
			AutomationEngaged: doc.AutomationEngaged,
		}
		if v, ok := d.SettingValue(); ok {
			// #nosec G115 -- settings are bounded by the kind range
			setting := int32(v)
			row.Setting = &setting
		}
		errs = append(errs, s.Writer.InsertDevice(ctx, row))
	}
	return errors.Join(errs...)
}
