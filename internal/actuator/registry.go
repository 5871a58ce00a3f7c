package actuator

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds the state of every actuator and the automation guard.
//
// All public methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex // serialises every write, including the guard
	devices map[string]*State
	order   []string
	aliases map[string]string
	names   map[string][]string // declared aliases per device
	engaged bool
	version uint64

	snap atomic.Pointer[Snapshot]

	// notifyMu is taken before mu is released so observers see changes in
	// commit order.
	notifyMu  sync.Mutex
	obsMu     sync.RWMutex
	observers []Observer

	logger Logger
	now    func() time.Time
}

// NewRegistry creates a registry with every device off.
func NewRegistry(specs []DeviceSpec) (*Registry, error) {
	r := &Registry{
		devices: make(map[string]*State, len(specs)),
		aliases: make(map[string]string),
		names:   make(map[string][]string, len(specs)),
		logger:  noopLogger{},
		now:     time.Now,
	}

	for _, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("%w: empty id", ErrDuplicateDevice)
		}
		if !spec.Kind.Valid() {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidKind, spec.Kind, spec.ID)
		}
		if _, dup := r.devices[spec.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDevice, spec.ID)
		}
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		r.devices[spec.ID] = &State{ID: spec.ID, Name: name, Kind: spec.Kind}
		r.order = append(r.order, spec.ID)
		r.names[spec.ID] = append([]string(nil), spec.Aliases...)

		for _, alias := range append([]string{spec.ID}, spec.Aliases...) {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				continue
			}
			if owner, dup := r.aliases[key]; dup && owner != spec.ID {
				return nil, fmt.Errorf("%w: alias %q used by %s and %s", ErrDuplicateDevice, alias, owner, spec.ID)
			}
			r.aliases[key] = spec.ID
		}
	}

	r.publishLocked()
	return r, nil
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Subscribe registers an observer for every subsequent change.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	r.observers = append(r.observers, o)
	r.obsMu.Unlock()
}

// Resolve maps a device ID or alias, case-insensitively, to a device ID.
func (r *Registry) Resolve(name string) (string, error) {
	id, ok := r.aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return id, nil
}

// Aliases returns the declared aliases of a device in configuration order.
func (r *Registry) Aliases(id string) []string {
	return append([]string(nil), r.names[id]...)
}

// Snapshot returns the latest published state. It never blocks on writers.
func (r *Registry) Snapshot() Snapshot {
	return *r.snap.Load()
}

// List returns every device in declaration order.
func (r *Registry) List() []State {
	return r.Snapshot().Devices
}

// Get returns one device by ID or alias.
func (r *Registry) Get(name string) (State, error) {
	id, err := r.Resolve(name)
	if err != nil {
		return State{}, err
	}
	for _, s := range r.Snapshot().Devices {
		if s.ID == id {
			return s, nil
		}
	}
	return State{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}

// AutomationEngaged reports the automation guard.
func (r *Registry) AutomationEngaged() bool {
	return r.Snapshot().AutomationEngaged
}

// SetOn switches a device on or off. Switching to the current state is a
// no-op that returns the current state. Writes accept an ID or alias.
func (r *Registry) SetOn(id string, on bool, source Source) (State, error) {
	var out State
	err := r.update(source, func(tx *Tx) error {
		var err error
		out, err = tx.SetOn(id, on)
		return err
	})
	return out, err
}

// SetSetting changes the setting of a device that is on.
//
// Returns *RangeError for a value outside the kind range, ErrNoSetting for
// lights, ErrNotOn when the device is off. Range is checked first, so an
// out-of-range value is reported as such whatever the power state.
func (r *Registry) SetSetting(id string, value int, source Source) (State, error) {
	var out State
	err := r.update(source, func(tx *Tx) error {
		var err error
		out, err = tx.SetSetting(id, value)
		return err
	})
	return out, err
}

// TurnOnAt switches a device on with the given setting in one operation.
func (r *Registry) TurnOnAt(id string, value int, source Source) (State, error) {
	var out State
	err := r.update(source, func(tx *Tx) error {
		var err error
		out, err = tx.TurnOnAt(id, value)
		return err
	})
	return out, err
}

// Engage runs fn and sets the automation guard, atomically, only when the
// guard is clear. It reports whether fn ran. Changes fn made before
// returning an error are kept and the guard is still set, so a partially
// applied rule pass is never re-run.
func (r *Registry) Engage(source Source, fn func(tx *Tx) error) (bool, error) {
	ran := false
	err := r.update(source, func(tx *Tx) error {
		if r.engaged {
			return nil
		}
		ran = true
		r.engaged = true
		tx.guardChanged = true
		return fn(tx)
	})
	return ran, err
}

// Leave switches every device off and clears the automation guard.
// It returns the resulting device states.
func (r *Registry) Leave(source Source) []State {
	_ = r.update(source, func(tx *Tx) error {
		for _, id := range r.order {
			if _, err := tx.SetOn(id, false); err != nil {
				return err
			}
		}
		if r.engaged {
			r.engaged = false
			tx.guardChanged = true
		}
		return nil
	})
	return r.List()
}

// update runs fn under the write lock, publishes a new snapshot when
// anything changed and then notifies observers in commit order.
func (r *Registry) update(source Source, fn func(tx *Tx) error) error {
	r.mu.Lock()
	tx := &Tx{r: r, source: source, at: r.now()}
	err := tx.run(fn)
	if len(tx.changes) > 0 || tx.guardChanged {
		r.version++
		for i := range tx.changes {
			tx.changes[i].Version = r.version
		}
		r.publishLocked()
	}
	r.notifyMu.Lock()
	r.mu.Unlock()
	defer r.notifyMu.Unlock()

	r.notify(tx.changes)
	return err
}

// publishLocked stores a fresh immutable snapshot. Caller holds mu or is
// the constructor.
func (r *Registry) publishLocked() {
	devices := make([]State, 0, len(r.order))
	for _, id := range r.order {
		devices = append(devices, *r.devices[id])
	}
	r.snap.Store(&Snapshot{
		Devices:           devices,
		AutomationEngaged: r.engaged,
		Version:           r.version,
	})
}

func (r *Registry) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	r.obsMu.RLock()
	observers := append([]Observer(nil), r.observers...)
	r.obsMu.RUnlock()

	for _, c := range changes {
		r.logger.Info("actuator changed",
			"device", c.Device.ID,
			"status", c.Device.Status(),
			"setting", settingAttr(c.Device),
			"source", c.Source,
		)
		for _, o := range observers {
			r.deliver(o, c)
		}
	}
}

func (r *Registry) deliver(o Observer, c Change) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("actuator observer panicked", "device", c.Device.ID, "panic", p)
		}
	}()
	o.ActuatorChanged(c)
}

func settingAttr(s State) any {
	if v, ok := s.SettingValue(); ok {
		return v
	}
	return "none"
}
