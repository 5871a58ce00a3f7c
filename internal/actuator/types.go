package actuator

import (
	"strings"
	"time"
)

// Kind identifies the type of actuator.
type Kind string

// Supported actuator kinds.
const (
	KindLight Kind = "light"
	KindAC    Kind = "ac"
	KindFan   Kind = "fan"
)

// settingRange describes the setting bounds of a kind. A zero value means
// the kind has no setting.
type settingRange struct {
	min, max, def int
}

var kindRanges = map[Kind]settingRange{
	KindAC:  {min: 16, max: 32, def: 16},
	KindFan: {min: 1, max: 3, def: 1},
}

// ParseKind converts a configuration string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindLight, KindAC, KindFan:
		return true
	}
	return false
}

// HasSetting reports whether devices of this kind carry a setting.
func (k Kind) HasSetting() bool {
	_, ok := kindRanges[k]
	return ok
}

// SettingRange returns the inclusive bounds and default of the setting.
// ok is false for kinds without a setting.
func (k Kind) SettingRange() (lo, hi, def int, ok bool) {
	r, ok := kindRanges[k]
	return r.min, r.max, r.def, ok
}

// Source records which writer caused a change.
type Source string

// Known sources of actuator changes.
const (
	SourceManual     Source = "manual"
	SourceMQTT       Source = "mqtt"
	SourceVoice      Source = "voice"
	SourceAutomation Source = "automation"
	SourceLeaving    Source = "leaving"
)

// DeviceSpec declares a device when building a Registry.
type DeviceSpec struct {
	ID      string
	Name    string
	Kind    Kind
	Aliases []string
}

// State is the current state of one device. Setting is nil whenever the
// device is off or its kind has no setting. States handed out by the
// registry are values; the Setting pointee is never modified after
// publication.
type State struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	On        bool      `json:"on"`
	Setting   *int      `json:"setting"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingValue returns the setting and whether one is present.
func (s State) SettingValue() (int, bool) {
	if s.Setting == nil {
		return 0, false
	}
	return *s.Setting, true
}

// Status returns "on" or "off".
func (s State) Status() string {
	if s.On {
		return "on"
	}
	return "off"
}

// sameAs reports whether two states have identical on/setting values.
func (s State) sameAs(o State) bool {
	if s.On != o.On {
		return false
	}
	a, aok := s.SettingValue()
	b, bok := o.SettingValue()
	return aok == bok && a == b
}

// Change describes one effective mutation.
type Change struct {
	Device   State     `json:"device"`
	Previous State     `json:"previous"`
	Source   Source    `json:"source"`
	Version  uint64    `json:"version"`
	At       time.Time `json:"at"`
}

// Snapshot is an immutable view of every device and the automation guard.
type Snapshot struct {
	Devices           []State `json:"devices"`
	AutomationEngaged bool    `json:"automation_engaged"`
	Version           uint64  `json:"version"`
}

// Observer receives actuator changes. Implementations must not block for
// long; they run on the writer's goroutine.
type Observer interface {
	ActuatorChanged(Change)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Change)

// ActuatorChanged calls f(c).
func (f ObserverFunc) ActuatorChanged(c Change) { f(c) }

func intPtr(v int) *int { return &v }
