package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// SensorReading is one sensor poll. Nil fields are unknown.
type SensorReading struct {
	Temperature *float64
	Humidity    *float64
	AirQuality  string // Good, Poor or unknown
	Motion      *bool
	At          time.Time
}

// DeviceReading is the state of one actuator.
type DeviceReading struct {
	ID      string
	Kind    string
	On      bool
	Setting *int
	At      time.Time
}

// WriteSensors queues a sensors point. Readings with no known value are
// dropped.
func (c *Client) WriteSensors(r SensorReading) {
	if !c.IsConnected() {
		return
	}
	if p := sensorPoint(c.site, r); p != nil {
		c.writeAPI.WritePoint(p)
	}
}

// WriteDevice queues a devices point.
func (c *Client) WriteDevice(r DeviceReading) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(devicePoint(c.site, r))
}

func sensorPoint(site string, r SensorReading) *write.Point {
	fields := make(map[string]any, 4)
	if r.Temperature != nil {
		fields["temperature"] = *r.Temperature
	}
	if r.Humidity != nil {
		fields["humidity"] = *r.Humidity
	}
	switch r.AirQuality {
	case "Good":
		fields["air_quality_poor"] = false
	case "Poor":
		fields["air_quality_poor"] = true
	}
	if r.Motion != nil {
		fields["motion"] = *r.Motion
	}
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint("sensors", map[string]string{"site": site}, fields, stamp(r.At))
}

func devicePoint(site string, r DeviceReading) *write.Point {
	fields := map[string]any{"on": r.On}
	if r.Setting != nil {
		fields["setting"] = int64(*r.Setting)
	}
	tags := map[string]string{"site": site, "device": r.ID, "kind": r.Kind}
	return write.NewPoint("devices", tags, fields, stamp(r.At))
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
