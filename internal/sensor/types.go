package sensor

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoReading is returned by a reader that has not received any value yet.
	ErrNoReading = errors.New("sensor: no reading")

	// ErrStaleReading is returned when the last value is older than allowed.
	ErrStaleReading = errors.New("sensor: reading is stale")
)

// AirQuality is the digital output of the gas sensor.
type AirQuality string

// Air quality values.
const (
	AirGood    AirQuality = "Good"
	AirPoor    AirQuality = "Poor"
	AirUnknown AirQuality = "unknown"
)

// Snapshot is one poll result. Nil fields mean the value is unknown.
type Snapshot struct {
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	AirQuality  AirQuality `json:"air_quality"`
	Motion      *bool      `json:"motion"`
	CapturedAt  time.Time  `json:"captured_at"`
}

// TemperatureC returns the temperature and whether it is known.
func (s Snapshot) TemperatureC() (float64, bool) {
	if s.Temperature == nil {
		return 0, false
	}
	return *s.Temperature, true
}

// MotionDetected returns the motion bit and whether it is known.
func (s Snapshot) MotionDetected() (bool, bool) {
	if s.Motion == nil {
		return false, false
	}
	return *s.Motion, true
}

// Climate is a temperature and humidity pair from one DHT read.
type Climate struct {
	TemperatureC float64 `json:"temperature"`
	HumidityPct  float64 `json:"humidity"`
}

// ClimateReader reads temperature and humidity.
type ClimateReader interface {
	ReadClimate(ctx context.Context) (Climate, error)
}

// AirQualityReader reads the gas sensor.
type AirQualityReader interface {
	ReadAirQuality(ctx context.Context) (AirQuality, error)
}

// MotionReader reads the PIR sensor.
type MotionReader interface {
	ReadMotion(ctx context.Context) (bool, error)
}

// Readers groups the readers of a Cache. A nil reader means the field is
// always unknown.
type Readers struct {
	Climate    ClimateReader
	AirQuality AirQualityReader
	Motion     MotionReader
}
