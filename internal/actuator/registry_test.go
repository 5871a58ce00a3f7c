package actuator

import (
	"errors"
	"sync"
	"testing"
)

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) ActuatorChanged(c Change) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func testSpecs() []DeviceSpec {
	return []DeviceSpec{
		{ID: "kitchen_light", Name: "Kitchen Light", Kind: KindLight, Aliases: []string{"kitchen", "light"}},
		{ID: "livingroom_ac", Name: "Living Room AC", Kind: KindAC, Aliases: []string{"livingroom", "ac"}},
		{ID: "bedroom_fan", Name: "Bedroom Fan", Kind: KindFan, Aliases: []string{"bedroom", "fan"}},
	}
}

func newTestRegistry(t *testing.T) (*Registry, *recorder) {
	t.Helper()
	r, err := NewRegistry(testSpecs())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	rec := &recorder{}
	r.Subscribe(rec)
	return r, rec
}

func settingOf(t *testing.T, s State) int {
	t.Helper()
	v, ok := s.SettingValue()
	if !ok {
		t.Fatalf("%s has no setting", s.ID)
	}
	return v
}

func TestNewRegistry_AllOff(t *testing.T) {
	r, _ := newTestRegistry(t)

	devices := r.List()
	if len(devices) != 3 {
		t.Fatalf("List() len = %d, want 3", len(devices))
	}
	for _, d := range devices {
		if d.On || d.Setting != nil {
			t.Errorf("%s should start off with no setting, got %+v", d.ID, d)
		}
	}
	if r.AutomationEngaged() {
		t.Error("guard should start clear")
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		specs []DeviceSpec
		want  error
	}{
		{
			name:  "duplicate id",
			specs: []DeviceSpec{{ID: "a", Kind: KindLight}, {ID: "a", Kind: KindFan}},
			want:  ErrDuplicateDevice,
		},
		{
			name:  "duplicate alias",
			specs: []DeviceSpec{{ID: "a", Kind: KindLight, Aliases: []string{"x"}}, {ID: "b", Kind: KindFan, Aliases: []string{"X"}}},
			want:  ErrDuplicateDevice,
		},
		{
			name:  "bad kind",
			specs: []DeviceSpec{{ID: "a", Kind: "heater"}},
			want:  ErrInvalidKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.specs); !errors.Is(err, tt.want) {
				t.Errorf("NewRegistry() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSetOn_Idempotent(t *testing.T) {
	for _, spec := range testSpecs() {
		t.Run(spec.ID, func(t *testing.T) {
			r, rec := newTestRegistry(t)

			first, err := r.SetOn(spec.ID, true, SourceManual)
			if err != nil {
				t.Fatalf("SetOn(true) error = %v", err)
			}
			second, err := r.SetOn(spec.ID, true, SourceManual)
			if err != nil {
				t.Fatalf("second SetOn(true) error = %v", err)
			}
			if !first.sameAs(second) || first.UpdatedAt != second.UpdatedAt {
				t.Errorf("SetOn(true) twice differs: %+v vs %+v", first, second)
			}
			if rec.count() != 1 {
				t.Errorf("notifications = %d, want 1", rec.count())
			}

			off1, _ := r.SetOn(spec.ID, false, SourceManual)
			off2, _ := r.SetOn(spec.ID, false, SourceManual)
			if !off1.sameAs(off2) || off1.On {
				t.Errorf("SetOn(false) twice differs: %+v vs %+v", off1, off2)
			}
			if rec.count() != 2 {
				t.Errorf("notifications = %d, want 2", rec.count())
			}
		})
	}
}

func TestSetOn_DefaultsAndClear(t *testing.T) {
	r, _ := newTestRegistry(t)

	ac, _ := r.SetOn("livingroom_ac", true, SourceManual)
	if got := settingOf(t, ac); got != 16 {
		t.Errorf("AC default = %d, want 16", got)
	}
	fan, _ := r.SetOn("bedroom_fan", true, SourceManual)
	if got := settingOf(t, fan); got != 1 {
		t.Errorf("fan default = %d, want 1", got)
	}
	light, _ := r.SetOn("kitchen_light", true, SourceManual)
	if light.Setting != nil {
		t.Errorf("light setting = %v, want nil", *light.Setting)
	}

	if _, err := r.SetSetting("livingroom_ac", 24, SourceManual); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	off, _ := r.SetOn("livingroom_ac", false, SourceManual)
	if off.Setting != nil {
		t.Errorf("off AC keeps setting %d", *off.Setting)
	}
	on, _ := r.SetOn("livingroom_ac", true, SourceManual)
	if got := settingOf(t, on); got != 16 {
		t.Errorf("AC after off/on = %d, want default 16", got)
	}
}

func TestSetSetting_RangeNeverMutates(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		on    bool
		value int
	}{
		{name: "ac below range while on", id: "livingroom_ac", on: true, value: 15},
		{name: "ac above range while on", id: "livingroom_ac", on: true, value: 33},
		{name: "ac out of range while off", id: "livingroom_ac", on: false, value: 40},
		{name: "fan zero", id: "bedroom_fan", on: true, value: 0},
		{name: "fan four", id: "bedroom_fan", on: true, value: 4},
		{name: "fan negative while off", id: "bedroom_fan", on: false, value: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, rec := newTestRegistry(t)
			if tt.on {
				if _, err := r.SetOn(tt.id, true, SourceManual); err != nil {
					t.Fatal(err)
				}
			}
			before, _ := r.Get(tt.id)
			notified := rec.count()

			_, err := r.SetSetting(tt.id, tt.value, SourceManual)
			var rangeErr *RangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("SetSetting(%d) error = %v, want *RangeError", tt.value, err)
			}
			if rangeErr.Value != tt.value {
				t.Errorf("RangeError.Value = %d, want %d", rangeErr.Value, tt.value)
			}

			after, _ := r.Get(tt.id)
			if !before.sameAs(after) {
				t.Errorf("state mutated: %+v -> %+v", before, after)
			}
			if rec.count() != notified {
				t.Error("out-of-range setting must not notify")
			}
		})
	}
}

func TestSetSetting_Errors(t *testing.T) {
	r, _ := newTestRegistry(t)

	if _, err := r.SetSetting("bedroom_fan", 2, SourceManual); !errors.Is(err, ErrNotOn) {
		t.Errorf("fan off: error = %v, want ErrNotOn", err)
	}
	if _, err := r.SetSetting("kitchen_light", 1, SourceManual); !errors.Is(err, ErrNoSetting) {
		t.Errorf("light: error = %v, want ErrNoSetting", err)
	}
	if _, err := r.SetSetting("garage", 1, SourceManual); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("unknown: error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSetSetting_SameValueNoOp(t *testing.T) {
	r, rec := newTestRegistry(t)
	_, _ = r.SetOn("bedroom_fan", true, SourceManual)
	s, err := r.SetSetting("bedroom_fan", 3, SourceManual)
	if err != nil || settingOf(t, s) != 3 {
		t.Fatalf("SetSetting(3) = %+v, %v", s, err)
	}
	n := rec.count()
	if _, err := r.SetSetting("bedroom_fan", 3, SourceManual); err != nil {
		t.Fatal(err)
	}
	if rec.count() != n {
		t.Error("repeating the same setting must not notify")
	}
}

func TestTurnOnAt(t *testing.T) {
	r, rec := newTestRegistry(t)

	s, err := r.TurnOnAt("livingroom_ac", 22, SourceAutomation)
	if err != nil {
		t.Fatalf("TurnOnAt() error = %v", err)
	}
	if !s.On || settingOf(t, s) != 22 {
		t.Errorf("TurnOnAt() = %+v, want on@22", s)
	}
	if rec.count() != 1 {
		t.Errorf("notifications = %d, want 1 for a combined operation", rec.count())
	}

	if _, err := r.TurnOnAt("livingroom_ac", 22, SourceAutomation); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 1 {
		t.Error("identical TurnOnAt must not notify")
	}

	var rangeErr *RangeError
	if _, err := r.TurnOnAt("bedroom_fan", 9, SourceAutomation); !errors.As(err, &rangeErr) {
		t.Errorf("TurnOnAt(fan, 9) error = %v, want *RangeError", err)
	}
	if fan, _ := r.Get("bedroom_fan"); fan.On {
		t.Error("failed TurnOnAt must leave the fan off")
	}
}

func TestResolve(t *testing.T) {
	r, _ := newTestRegistry(t)
	tests := map[string]string{
		"kitchen":       "kitchen_light",
		"KITCHEN":       "kitchen_light",
		" ac ":          "livingroom_ac",
		"bedroom_fan":   "bedroom_fan",
		"livingroom":    "livingroom_ac",
		"kitchen_light": "kitchen_light",
	}
	for in, want := range tests {
		got, err := r.Resolve(in)
		if err != nil || got != want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := r.Resolve("garage"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Resolve(garage) error = %v, want ErrDeviceNotFound", err)
	}

	aliases := r.Aliases("livingroom_ac")
	if len(aliases) != 2 || aliases[0] != "livingroom" {
		t.Errorf("Aliases(livingroom_ac) = %v", aliases)
	}
	aliases[0] = "changed"
	if r.Aliases("livingroom_ac")[0] != "livingroom" {
		t.Error("Aliases() exposed internal slice")
	}
}

func TestWritesAcceptAliases(t *testing.T) {
	r, rec := newTestRegistry(t)

	st, err := r.TurnOnAt("ac", 22, SourceManual)
	if err != nil {
		t.Fatalf("TurnOnAt(ac) error = %v", err)
	}
	if st.ID != "livingroom_ac" || settingOf(t, st) != 22 {
		t.Errorf("TurnOnAt(ac) = %+v", st)
	}
	if _, err := r.SetSetting(" LivingRoom ", 25, SourceManual); err != nil {
		t.Fatalf("SetSetting(LivingRoom) error = %v", err)
	}
	if _, err := r.SetOn("Kitchen", true, SourceManual); err != nil {
		t.Fatalf("SetOn(Kitchen) error = %v", err)
	}

	if got, _ := r.Get("livingroom_ac"); settingOf(t, got) != 25 {
		t.Errorf("livingroom_ac setting = %d, want 25", settingOf(t, got))
	}
	if got, _ := r.Get("kitchen_light"); !got.On {
		t.Error("kitchen_light should be on")
	}
	if rec.count() != 3 {
		t.Errorf("changes = %d, want 3", rec.count())
	}
	for _, c := range rec.changes {
		if c.Device.ID != "livingroom_ac" && c.Device.ID != "kitchen_light" {
			t.Errorf("change reported for %q, want canonical ID", c.Device.ID)
		}
	}

	if _, err := r.SetOn("garage", true, SourceManual); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("SetOn(garage) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestEngageAndLeave(t *testing.T) {
	r, rec := newTestRegistry(t)

	ran, err := r.Engage(SourceAutomation, func(tx *Tx) error {
		if _, err := tx.SetOn("kitchen_light", true); err != nil {
			return err
		}
		_, err := tx.TurnOnAt("livingroom_ac", 22)
		return err
	})
	if err != nil || !ran {
		t.Fatalf("Engage() = %v, %v; want true, nil", ran, err)
	}
	if !r.AutomationEngaged() {
		t.Fatal("guard should be set after Engage")
	}

	ran, _ = r.Engage(SourceAutomation, func(tx *Tx) error {
		t.Error("rule pass must not run while engaged")
		return nil
	})
	if ran {
		t.Error("second Engage should report false")
	}

	// Manual writes still apply while engaged and never touch the guard.
	if _, err := r.SetOn("bedroom_fan", true, SourceManual); err != nil {
		t.Fatal(err)
	}
	if !r.AutomationEngaged() {
		t.Error("manual write cleared the guard")
	}

	n := rec.count()
	states := r.Leave(SourceLeaving)
	for _, s := range states {
		if s.On || s.Setting != nil {
			t.Errorf("%s still on after Leave: %+v", s.ID, s)
		}
	}
	if r.AutomationEngaged() {
		t.Error("Leave must clear the guard")
	}
	if got := rec.count() - n; got != 3 {
		t.Errorf("Leave notifications = %d, want 3", got)
	}
}

func TestLeave_ClearsGuardWithNothingOn(t *testing.T) {
	r, rec := newTestRegistry(t)
	if _, err := r.Engage(SourceAutomation, func(*Tx) error { return nil }); err != nil {
		t.Fatal(err)
	}
	v := r.Snapshot().Version

	r.Leave(SourceLeaving)
	if r.AutomationEngaged() {
		t.Error("guard should be clear")
	}
	if r.Snapshot().Version <= v {
		t.Error("guard change should publish a new snapshot version")
	}
	if rec.count() != 0 {
		t.Errorf("notifications = %d, want 0", rec.count())
	}
}

func TestEngage_PanicReleasesLock(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Engage(SourceAutomation, func(*Tx) error { panic("boom") })
	if err == nil {
		t.Fatal("expected error from panicking rule pass")
	}
	// The registry must still accept writes.
	if _, err := r.SetOn("kitchen_light", true, SourceManual); err != nil {
		t.Fatalf("SetOn after panic: %v", err)
	}
}

func TestObserverPanicIsContained(t *testing.T) {
	r, rec := newTestRegistry(t)
	r.Subscribe(ObserverFunc(func(Change) { panic("display offline") }))

	if _, err := r.SetOn("kitchen_light", true, SourceManual); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 1 {
		t.Errorf("other observers should still be notified, got %d", rec.count())
	}
}

func TestConcurrentWritersKeepInvariants(t *testing.T) {
	r, rec := newTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				switch (i + j) % 5 {
				case 0:
					_, _ = r.SetOn("livingroom_ac", j%2 == 0, SourceManual)
				case 1:
					_, _ = r.SetSetting("livingroom_ac", 16+j%17, SourceVoice)
				case 2:
					_, _ = r.TurnOnAt("bedroom_fan", 1+j%3, SourceAutomation)
				case 3:
					_, _ = r.SetOn("bedroom_fan", false, SourceManual)
				case 4:
					snap := r.Snapshot()
					for _, s := range snap.Devices {
						if !s.On && s.Setting != nil {
							t.Errorf("torn read: %s off with setting", s.ID)
						}
					}
				}
			}
		}(i)
	}
	wg.Wait()

	for _, s := range r.List() {
		if s.On != (s.Setting != nil) && s.Kind != KindLight {
			t.Errorf("%s on=%v setting=%v", s.ID, s.On, s.Setting)
		}
		if v, ok := s.SettingValue(); ok {
			lo, hi, _, _ := s.Kind.SettingRange()
			if v < lo || v > hi {
				t.Errorf("%s setting %d outside [%d,%d]", s.ID, v, lo, hi)
			}
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := 1; i < len(rec.changes); i++ {
		if rec.changes[i].Version < rec.changes[i-1].Version {
			t.Fatalf("change %d delivered out of order: v%d after v%d", i, rec.changes[i].Version, rec.changes[i-1].Version)
		}
	}
}
