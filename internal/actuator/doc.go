// Package actuator owns the on/off and setting state of every controllable
// device in the home: lights, the air conditioner and fans.
//
// A single Registry serialises every write (HTTP, MQTT, voice and the
// automation loop) through one mutex, together with the automation guard
// flag. Readers never take that lock: each commit publishes an immutable
// Snapshot through an atomic pointer, so a reader sees either the state
// before or after a write and never a mix of the two.
//
// # Settings
//
// The setting of a device is only meaningful while it is on:
//
//   - ac:    target temperature in °C, 16..32, default 16
//   - fan:   speed 1..3, default 1
//   - light: no setting
//
// Turning a device off clears its setting. Turning it on restores the kind
// default unless the same operation carries a value (TurnOnAt).
//
// # Notifications
//
// Observers registered with Subscribe receive one Change per effective
// mutation, in commit order, after the registry lock has been released.
// No-op writes (turning on a device that is already on, setting the value it
// already has) produce no notification.
//
// # Automation guard
//
// Engage runs an automation rule pass only while the guard is clear and sets
// it in the same critical section. Leave switches everything off and clears
// the guard. Nothing else touches the guard.
package actuator
