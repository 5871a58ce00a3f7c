package influxdb

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
)

var at = time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func intPtr(v int) *int           { return &v }

func lineProtocol(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Second))
}

func TestSensorPoint(t *testing.T) {
	tests := []struct {
		name    string
		reading SensorReading
		want    string
	}{
		{
			name:    "all known",
			reading: SensorReading{Temperature: floatPtr(27.5), Humidity: floatPtr(61), AirQuality: "Poor", Motion: boolPtr(true), At: at},
			want:    "sensors,site=home air_quality_poor=true,humidity=61,motion=true,temperature=27.5 1792353600",
		},
		{
			name:    "only air quality",
			reading: SensorReading{AirQuality: "Good", At: at},
			want:    "sensors,site=home air_quality_poor=false 1792353600",
		},
		{
			name:    "nothing known",
			reading: SensorReading{AirQuality: "unknown", At: at},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sensorPoint("home", tt.reading)
			if tt.want == "" {
				if p != nil {
					t.Errorf("expected no point, got %s", lineProtocol(p))
				}
				return
			}
			if got := lineProtocol(p); got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestDevicePoint(t *testing.T) {
	on := devicePoint("home", DeviceReading{ID: "livingroom_ac", Kind: "ac", On: true, Setting: intPtr(22), At: at})
	if got, want := lineProtocol(on), "devices,device=livingroom_ac,kind=ac,site=home on=true,setting=22i 1792353600"; got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	off := devicePoint("home", DeviceReading{ID: "kitchen_light", Kind: "light", At: at})
	if got := lineProtocol(off); !strings.Contains(got, " on=false ") || strings.Contains(got, "setting") {
		t.Errorf("off point = %s", got)
	}
}

func TestConnect_Disabled(t *testing.T) {
	if _, err := Connect(config.InfluxDBConfig{Enabled: false}, "home"); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: url, Token: "t", Org: "o", Bucket: "b"}, "home")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("err = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteAndFlush(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/write":
			if r.URL.Query().Get("bucket") != "smartaura" {
				t.Errorf("bucket = %q", r.URL.Query().Get("bucket"))
			}
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			lines = append(lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := Connect(config.InfluxDBConfig{
		Enabled: true, URL: srv.URL, Token: "t", Org: "home", Bucket: "smartaura", BatchSize: 10, FlushInterval: 60,
	}, "home")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	c.WriteSensors(SensorReading{Temperature: floatPtr(24), At: at})
	c.WriteDevice(DeviceReading{ID: "bedroom_fan", Kind: "fan", On: true, Setting: intPtr(2), At: at})
	c.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "sensors,site=home temperature=24") || !strings.HasPrefix(lines[1], "devices,device=bedroom_fan") {
		t.Errorf("written lines = %q", lines)
	}
}

func TestClosedClientDropsWrites(t *testing.T) {
	c := &Client{}
	c.WriteSensors(SensorReading{Temperature: floatPtr(20)})
	c.Flush()
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if c.IsConnected() {
		t.Error("zero client reports connected")
	}
}
