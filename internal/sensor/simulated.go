package sensor

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Simulated produces plausible readings for development without hardware.
// Temperature and humidity follow a bounded random walk.
type Simulated struct {
	mu          sync.Mutex
	rng         *rand.Rand
	temperature float64
	humidity    float64
	motionRate  float64
	poorRate    float64
}

// NewSimulated creates a simulator with the given random seed.
func NewSimulated(seed uint64) *Simulated {
	return &Simulated{
		rng:         rand.New(rand.NewPCG(seed, seed^0x5a5a)),
		temperature: 26,
		humidity:    60,
		motionRate:  0.3,
		poorRate:    0.1,
	}
}

// ReadClimate implements ClimateReader.
func (s *Simulated) ReadClimate(ctx context.Context) (Climate, error) {
	if err := ctx.Err(); err != nil {
		return Climate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temperature = clamp(s.temperature+s.rng.Float64()-0.5, 18, 34)
	s.humidity = clamp(s.humidity+(s.rng.Float64()-0.5)*4, 30, 90)
	return Climate{TemperatureC: round1(s.temperature), HumidityPct: round1(s.humidity)}, nil
}

// ReadAirQuality implements AirQualityReader.
func (s *Simulated) ReadAirQuality(ctx context.Context) (AirQuality, error) {
	if err := ctx.Err(); err != nil {
		return AirUnknown, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() < s.poorRate {
		return AirPoor, nil
	}
	return AirGood, nil
}

// ReadMotion implements MotionReader.
func (s *Simulated) ReadMotion(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.motionRate, nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
