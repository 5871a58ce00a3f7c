package actuator

import (
	"errors"
	"fmt"
)

// Domain errors for the actuator package.
//
//	if errors.Is(err, actuator.ErrNotOn) {
//	    // ask the user to switch the device on first
//	}
var (
	// ErrDeviceNotFound is returned when a device ID or alias is unknown.
	ErrDeviceNotFound = errors.New("actuator: device not found")

	// ErrDuplicateDevice is returned when two devices share an ID or alias.
	ErrDuplicateDevice = errors.New("actuator: duplicate device")

	// ErrInvalidKind is returned for a kind other than light, ac or fan.
	ErrInvalidKind = errors.New("actuator: invalid kind")

	// ErrNotOn is returned when a setting is changed on a device that is off.
	ErrNotOn = errors.New("actuator: device is off")

	// ErrNoSetting is returned when a setting is sent to a kind without one.
	ErrNoSetting = errors.New("actuator: kind has no setting")
)

// RangeError reports a setting outside the valid range of the device kind.
// State is never modified when a RangeError is returned.
type RangeError struct {
	DeviceID string
	Kind     Kind
	Value    int
	Min      int
	Max      int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("actuator: %s setting %d out of range [%d, %d] for %s", e.Kind, e.Value, e.Min, e.Max, e.DeviceID)
}
