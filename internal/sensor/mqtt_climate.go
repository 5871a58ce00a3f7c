package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MQTTClimate is a ClimateReader fed by a DHT node publishing JSON such as
// {"temperature": 27.4, "humidity": 61.0} on an MQTT topic.
//
// HandleMessage has the signature of an MQTT message handler so it can be
// passed straight to a subscription.
type MQTTClimate struct {
	mu       sync.RWMutex
	last     Climate
	received time.Time
	maxAge   time.Duration
	now      func() time.Time
}

// NewMQTTClimate creates a reader that rejects values older than maxAge.
// A zero maxAge accepts any age.
func NewMQTTClimate(maxAge time.Duration) *MQTTClimate {
	return &MQTTClimate{maxAge: maxAge, now: time.Now}
}

// HandleMessage records a climate payload.
func (m *MQTTClimate) HandleMessage(_ string, payload []byte) error {
	var msg struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding climate payload: %w", err)
	}
	if msg.Temperature == nil || msg.Humidity == nil {
		return fmt.Errorf("climate payload needs temperature and humidity")
	}

	m.mu.Lock()
	m.last = Climate{TemperatureC: *msg.Temperature, HumidityPct: *msg.Humidity}
	m.received = m.now()
	m.mu.Unlock()
	return nil
}

// ReadClimate implements ClimateReader.
func (m *MQTTClimate) ReadClimate(context.Context) (Climate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.received.IsZero() {
		return Climate{}, ErrNoReading
	}
	if m.maxAge > 0 {
		if age := m.now().Sub(m.received); age > m.maxAge {
			return Climate{}, fmt.Errorf("%w: %s old", ErrStaleReading, age.Round(time.Second))
		}
	}
	return m.last, nil
}
