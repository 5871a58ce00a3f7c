package automation

import (
	"errors"
	"fmt"

	"github.com/nerrad567/smartaura-core/internal/actuator"
	"github.com/nerrad567/smartaura-core/internal/infrastructure/config"
	"github.com/nerrad567/smartaura-core/internal/sensor"
)

// ClimateAction is the AC temperature and fan speed for a temperature band.
// Zero switches the device off.
type ClimateAction struct {
	AC  int
	Fan int
}

// Rules holds the fixed time-of-day and temperature rules.
type Rules struct {
	LightDevice string
	ACDevice    string
	FanDevice   string

	// The light is on from LightOnHour up to, not including, LightOffHour.
	// The window wraps midnight when LightOnHour > LightOffHour.
	LightOnHour  int
	LightOffHour int

	HotAbove  float64
	WarmAbove float64
	Hot       ClimateAction
	Warm      ClimateAction
	Cool      ClimateAction
}

// RulesFromConfig builds Rules from the automation configuration.
func RulesFromConfig(cfg config.AutomationConfig) Rules {
	r := cfg.Rules
	return Rules{
		LightDevice:  cfg.LightDevice,
		ACDevice:     cfg.ACDevice,
		FanDevice:    cfg.FanDevice,
		LightOnHour:  r.LightOnHour,
		LightOffHour: r.LightOffHour,
		HotAbove:     r.HotAbove,
		WarmAbove:    r.WarmAbove,
		Hot:          ClimateAction{AC: r.Hot.AC, Fan: r.Hot.Fan},
		Warm:         ClimateAction{AC: r.Warm.AC, Fan: r.Warm.Fan},
		Cool:         ClimateAction{AC: r.Cool.AC, Fan: r.Cool.Fan},
	}
}

// LightWanted reports whether the light should be on at the given hour.
func (r Rules) LightWanted(hour int) bool {
	switch {
	case r.LightOnHour == r.LightOffHour:
		return false
	case r.LightOnHour < r.LightOffHour:
		return hour >= r.LightOnHour && hour < r.LightOffHour
	default:
		return hour >= r.LightOnHour || hour < r.LightOffHour
	}
}

// Band returns the action for a temperature and a short band name.
//
//	t >  HotAbove             hot
//	WarmAbove < t <= HotAbove warm
//	t <= WarmAbove            cool
func (r Rules) Band(tempC float64) (string, ClimateAction) {
	switch {
	case tempC > r.HotAbove:
		return "hot", r.Hot
	case tempC > r.WarmAbove:
		return "warm", r.Warm
	default:
		return "cool", r.Cool
	}
}

// Apply runs the rule set inside a registry transaction. Each branch is
// independent: a missing temperature skips only the climate branch, and an
// error in one device does not stop the others. Writes that match the
// current state are no-ops in the registry.
func (r Rules) Apply(tx *actuator.Tx, hour int, snap sensor.Snapshot) error {
	var errs []error

	if _, err := tx.SetOn(r.LightDevice, r.LightWanted(hour)); err != nil {
		errs = append(errs, fmt.Errorf("light rule: %w", err))
	}

	if temp, ok := snap.TemperatureC(); ok {
		_, action := r.Band(temp)
		if err := setLevel(tx, r.ACDevice, action.AC); err != nil {
			errs = append(errs, fmt.Errorf("ac rule: %w", err))
		}
		if err := setLevel(tx, r.FanDevice, action.Fan); err != nil {
			errs = append(errs, fmt.Errorf("fan rule: %w", err))
		}
	}

	return errors.Join(errs...)
}

func setLevel(tx *actuator.Tx, id string, level int) error {
	if level == 0 {
		_, err := tx.SetOn(id, false)
		return err
	}
	_, err := tx.TurnOnAt(id, level)
	return err
}
