package command

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(name string) (string, error) {
	if id, ok := f[strings.ToLower(name)]; ok {
		return id, nil
	}
	return "", errors.New("not found")
}

var homeDevices = fakeResolver{
	"ac":    "livingroom_ac",
	"fan":   "bedroom_fan",
	"light": "kitchen_light",
}

type fakeClassifier struct {
	labels map[Task]string
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeClassifier) Classify(ctx context.Context, task Task, _ string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.labels[task], nil
}

func TestParseIntent(t *testing.T) {
	tests := map[string]Intent{
		"command-query":    IntentCommand,
		" Command-Query. ": IntentCommand,
		"general-query":    IntentGeneral,
		`"general-query"`:  IntentGeneral,
		"weather":          IntentUnknown,
		"":                 IntentUnknown,
	}
	for label, want := range tests {
		if got := ParseIntent(label); got != want {
			t.Errorf("ParseIntent(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label   string
		want    Resolution
		wantErr error
	}{
		{label: "ac-control-on", want: Resolution{Kind: ResolutionDevice, Command: DeviceCommand{DeviceID: "livingroom_ac", Action: ActionOn}}},
		{label: "ac-control-off", want: Resolution{Kind: ResolutionDevice, Command: DeviceCommand{DeviceID: "livingroom_ac", Action: ActionOff}}},
		{label: "ac-control-25", want: Resolution{Kind: ResolutionDevice, Command: DeviceCommand{DeviceID: "livingroom_ac", Action: ActionSetValue, Value: 25}}},
		{label: "FAN-control-3.", want: Resolution{Kind: ResolutionDevice, Command: DeviceCommand{DeviceID: "bedroom_fan", Action: ActionSetValue, Value: 3}}},
		{label: "fan-control-7", want: Resolution{Kind: ResolutionDevice, Command: DeviceCommand{DeviceID: "bedroom_fan", Action: ActionSetValue, Value: 7}}},
		{label: "light-control-on", want: Resolution{Kind: ResolutionDevice, Command: DeviceCommand{DeviceID: "kitchen_light", Action: ActionOn}}},
		{label: "leaving", want: Resolution{Kind: ResolutionLeaving}},
		{label: "Leave-Home", want: Resolution{Kind: ResolutionLeaving}},
		{label: "no-access", wantErr: ErrNoAccess},
		{label: "tv-control-on", wantErr: ErrNoAccess},
		{label: "ac-error", wantErr: ErrUnrecognized},
		{label: "fan-error", wantErr: ErrUnrecognized},
		{label: "error", wantErr: ErrUnrecognized},
		{label: "light-control-bright", wantErr: ErrUnrecognized},
		{label: "-control-on", wantErr: ErrUnrecognized},
		{label: "", wantErr: ErrUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseLabel(tt.label, homeDevices)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseLabel(%q) error = %v, want %v", tt.label, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLabel(%q) error = %v", tt.label, err)
			}
			if got.Kind != tt.want.Kind || got.Command != tt.want.Command {
				t.Errorf("ParseLabel(%q) = %+v, want %+v", tt.label, got, tt.want)
			}
		})
	}
}

func TestRouter_ClassifyIntent(t *testing.T) {
	tests := []struct {
		name string
		cls  *fakeClassifier
		want Intent
	}{
		{name: "command", cls: &fakeClassifier{labels: map[Task]string{TaskIntent: "command-query"}}, want: IntentCommand},
		{name: "general", cls: &fakeClassifier{labels: map[Task]string{TaskIntent: "general-query"}}, want: IntentGeneral},
		{name: "odd label", cls: &fakeClassifier{labels: map[Task]string{TaskIntent: "chit-chat"}}, want: IntentUnknown},
		{name: "error", cls: &fakeClassifier{err: errors.New("429 too many requests")}, want: IntentUnknown},
		{name: "timeout", cls: &fakeClassifier{delay: time.Second, labels: map[Task]string{TaskIntent: "command-query"}}, want: IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(tt.cls, homeDevices, 30*time.Millisecond)
			if got := r.ClassifyIntent(context.Background(), "turn on the fan"); got != tt.want {
				t.Errorf("ClassifyIntent() = %q, want %q", got, tt.want)
			}
			if tt.cls.calls.Load() != 1 {
				t.Errorf("classifier calls = %d, want exactly 1 (no retry)", tt.cls.calls.Load())
			}
		})
	}
}

func TestRouter_ResolveCommandFailureIsUnrecognized(t *testing.T) {
	r := NewRouter(&fakeClassifier{err: errors.New("network down")}, homeDevices, time.Second)
	if _, err := r.ResolveCommand(context.Background(), "turn on the ac"); !errors.Is(err, ErrUnrecognized) {
		t.Errorf("error = %v, want ErrUnrecognized", err)
	}
}

func TestRouter_Route(t *testing.T) {
	cls := &fakeClassifier{labels: map[Task]string{TaskIntent: "command-query", TaskCommand: "leaving"}}
	r := NewRouter(cls, homeDevices, time.Second)

	res := r.Route(context.Background(), "I'm leaving")
	if res.Intent != IntentCommand || res.Err != nil || !res.Resolution.IsLeaving() {
		t.Errorf("Route() = %+v, want leaving command", res)
	}

	general := NewRouter(&fakeClassifier{labels: map[Task]string{TaskIntent: "general-query"}}, homeDevices, time.Second)
	res = general.Route(context.Background(), "who invented the light bulb")
	if res.Intent != IntentGeneral || res.Resolution.Kind != "" {
		t.Errorf("general Route() = %+v", res)
	}
}
