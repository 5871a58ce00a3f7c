package actuator

import (
	"fmt"
	"time"
)

// Tx applies changes inside a single registry critical section. A Tx is
// only valid inside the function passed to Engage.
type Tx struct {
	r            *Registry
	source       Source
	at           time.Time
	changes      []Change
	guardChanged bool
}

// Get returns the current state of a device within the transaction.
func (tx *Tx) Get(id string) (State, error) {
	d, err := tx.device(id)
	if err != nil {
		return State{}, err
	}
	return *d, nil
}

// SetOn switches a device on or off. See Registry.SetOn.
func (tx *Tx) SetOn(id string, on bool) (State, error) {
	d, err := tx.device(id)
	if err != nil {
		return State{}, err
	}
	if d.On == on {
		return *d, nil
	}

	next := *d
	next.On = on
	next.Setting = nil
	if on {
		if _, _, def, ok := d.Kind.SettingRange(); ok {
			next.Setting = intPtr(def)
		}
	}
	return tx.commit(d, next), nil
}

// SetSetting changes the setting of a device that is on. See Registry.SetSetting.
func (tx *Tx) SetSetting(id string, value int) (State, error) {
	d, err := tx.device(id)
	if err != nil {
		return State{}, err
	}
	if err := checkRange(d, value); err != nil {
		return *d, err
	}
	if !d.On {
		return *d, fmt.Errorf("%w: %s", ErrNotOn, id)
	}
	if cur, ok := d.SettingValue(); ok && cur == value {
		return *d, nil
	}

	next := *d
	next.Setting = intPtr(value)
	return tx.commit(d, next), nil
}

// TurnOnAt switches a device on with the given setting. See Registry.TurnOnAt.
func (tx *Tx) TurnOnAt(id string, value int) (State, error) {
	d, err := tx.device(id)
	if err != nil {
		return State{}, err
	}
	if err := checkRange(d, value); err != nil {
		return *d, err
	}

	next := *d
	next.On = true
	next.Setting = intPtr(value)
	if d.sameAs(next) {
		return *d, nil
	}
	return tx.commit(d, next), nil
}

// device looks up a device by ID or alias, like Registry.Get.
func (tx *Tx) device(name string) (*State, error) {
	if d, ok := tx.r.devices[name]; ok {
		return d, nil
	}
	id, err := tx.r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return tx.r.devices[id], nil
}

// commit stores next in place of *d and records the change.
func (tx *Tx) commit(d *State, next State) State {
	prev := *d
	next.UpdatedAt = tx.at
	*d = next
	tx.changes = append(tx.changes, Change{
		Device:   next,
		Previous: prev,
		Source:   tx.source,
		At:       tx.at,
	})
	return next
}

// run calls fn and converts a panic into an error so the registry lock is
// always released.
func (tx *Tx) run(fn func(tx *Tx) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("actuator: update panicked: %v", p)
		}
	}()
	return fn(tx)
}

func checkRange(d *State, value int) error {
	lo, hi, _, ok := d.Kind.SettingRange()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSetting, d.ID)
	}
	if value < lo || value > hi {
		return &RangeError{DeviceID: d.ID, Kind: d.Kind, Value: value, Min: lo, Max: hi}
	}
	return nil
}
