package sensor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClimate struct {
	c   Climate
	err error
}

func (f fakeClimate) ReadClimate(context.Context) (Climate, error) { return f.c, f.err }

type fakeAir struct {
	aq  AirQuality
	err error
}

func (f fakeAir) ReadAirQuality(context.Context) (AirQuality, error) { return f.aq, f.err }

type fakeMotion struct {
	motion bool
	err    error
	panics bool
}

func (f fakeMotion) ReadMotion(context.Context) (bool, error) {
	if f.panics {
		panic("gpio not exported")
	}
	return f.motion, f.err
}

type blockingMotion struct{}

func (blockingMotion) ReadMotion(ctx context.Context) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestCache_LatestBeforeFirstPoll(t *testing.T) {
	c := NewCache(Readers{})
	snap := c.Latest()
	if snap.Temperature != nil || snap.Humidity != nil || snap.Motion != nil {
		t.Errorf("expected all-unknown snapshot, got %+v", snap)
	}
	if snap.AirQuality != AirUnknown {
		t.Errorf("AirQuality = %q, want unknown", snap.AirQuality)
	}
}

func TestCache_PollAllReaders(t *testing.T) {
	c := NewCache(Readers{
		Climate:    fakeClimate{c: Climate{TemperatureC: 29, HumidityPct: 55}},
		AirQuality: fakeAir{aq: AirPoor},
		Motion:     fakeMotion{motion: true},
	})
	fixed := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	snap := c.Poll(context.Background())

	if temp, ok := snap.TemperatureC(); !ok || temp != 29 {
		t.Errorf("temperature = %v, %v; want 29", temp, ok)
	}
	if snap.Humidity == nil || *snap.Humidity != 55 {
		t.Errorf("humidity = %v, want 55", snap.Humidity)
	}
	if snap.AirQuality != AirPoor {
		t.Errorf("air quality = %q, want Poor", snap.AirQuality)
	}
	if m, ok := snap.MotionDetected(); !ok || !m {
		t.Errorf("motion = %v, %v; want true", m, ok)
	}
	if !snap.CapturedAt.Equal(fixed) {
		t.Errorf("CapturedAt = %v, want %v", snap.CapturedAt, fixed)
	}
	if got := c.Latest(); got.CapturedAt != snap.CapturedAt {
		t.Error("Latest() should return the polled snapshot")
	}
}

func TestCache_FailuresBecomeUnknown(t *testing.T) {
	tests := []struct {
		name    string
		readers Readers
		check   func(t *testing.T, s Snapshot)
	}{
		{
			name:    "climate error",
			readers: Readers{Climate: fakeClimate{err: errors.New("checksum mismatch")}},
			check: func(t *testing.T, s Snapshot) {
				if s.Temperature != nil || s.Humidity != nil {
					t.Errorf("climate should be unknown, got %v/%v", s.Temperature, s.Humidity)
				}
			},
		},
		{
			name:    "air error",
			readers: Readers{AirQuality: fakeAir{err: errors.New("read failed")}},
			check: func(t *testing.T, s Snapshot) {
				if s.AirQuality != AirUnknown {
					t.Errorf("air = %q, want unknown", s.AirQuality)
				}
			},
		},
		{
			name:    "air garbage value",
			readers: Readers{AirQuality: fakeAir{aq: "Smoky"}},
			check: func(t *testing.T, s Snapshot) {
				if s.AirQuality != AirUnknown {
					t.Errorf("air = %q, want unknown", s.AirQuality)
				}
			},
		},
		{
			name:    "motion panic",
			readers: Readers{Motion: fakeMotion{panics: true}},
			check: func(t *testing.T, s Snapshot) {
				if s.Motion != nil {
					t.Errorf("motion = %v, want unknown", *s.Motion)
				}
			},
		},
		{
			name: "motion error keeps climate",
			readers: Readers{
				Climate: fakeClimate{c: Climate{TemperatureC: 21, HumidityPct: 40}},
				Motion:  fakeMotion{err: errors.New("no pin")},
			},
			check: func(t *testing.T, s Snapshot) {
				if s.Motion != nil {
					t.Error("motion should be unknown")
				}
				if s.Temperature == nil || *s.Temperature != 21 {
					t.Error("temperature should survive another reader failing")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache(tt.readers)
			tt.check(t, c.Poll(context.Background()))
		})
	}
}

func TestCache_ReadTimeout(t *testing.T) {
	c := NewCache(Readers{Motion: blockingMotion{}})
	c.SetReadTimeout(20 * time.Millisecond)

	start := time.Now()
	snap := c.Poll(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("Poll did not honour the read timeout")
	}
	if snap.Motion != nil {
		t.Error("timed-out read should leave motion unknown")
	}
}

func TestCache_OnUpdateAndRunStops(t *testing.T) {
	c := NewCache(Readers{Motion: fakeMotion{motion: true}})

	var polls atomic.Int32
	c.OnUpdate(func(Snapshot) { polls.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for polls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d polls before deadline", polls.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMQTTClimate(t *testing.T) {
	m := NewMQTTClimate(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	if _, err := m.ReadClimate(context.Background()); !errors.Is(err, ErrNoReading) {
		t.Errorf("before any message: error = %v, want ErrNoReading", err)
	}

	if err := m.HandleMessage("sensors/dht22", []byte(`{"temperature":27.5,"humidity":61}`)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	got, err := m.ReadClimate(context.Background())
	if err != nil || got.TemperatureC != 27.5 || got.HumidityPct != 61 {
		t.Errorf("ReadClimate() = %+v, %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := m.ReadClimate(context.Background()); !errors.Is(err, ErrStaleReading) {
		t.Errorf("stale: error = %v, want ErrStaleReading", err)
	}

	for _, bad := range []string{`not json`, `{"temperature":20}`} {
		if err := m.HandleMessage("t", []byte(bad)); err == nil {
			t.Errorf("HandleMessage(%q) expected error", bad)
		}
	}
}

func TestSimulatedBounds(t *testing.T) {
	s := NewSimulated(7)
	ctx := context.Background()
	for i := 0; i < 500; i++ {
		c, err := s.ReadClimate(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if c.TemperatureC < 18 || c.TemperatureC > 34 || c.HumidityPct < 30 || c.HumidityPct > 90 {
			t.Fatalf("reading out of bounds: %+v", c)
		}
		aq, _ := s.ReadAirQuality(ctx)
		if aq != AirGood && aq != AirPoor {
			t.Fatalf("air quality %q", aq)
		}
	}
}
