package command

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnrecognized is returned for any label outside the vocabulary.
	ErrUnrecognized = errors.New("command: unrecognized")

	// ErrNoAccess is returned when the request names a device the home does
	// not have.
	ErrNoAccess = errors.New("command: no access to device")
)

// Intent is the coarse classification of an utterance.
type Intent string

// Intents.
const (
	IntentCommand Intent = "command"
	IntentGeneral Intent = "general"
	IntentUnknown Intent = "unknown"
)

// Task selects which question is put to the Classifier.
type Task string

// Classifier tasks.
const (
	TaskIntent  Task = "intent"
	TaskCommand Task = "command"
)

// Classifier answers a task with a single label.
type Classifier interface {
	Classify(ctx context.Context, task Task, text string) (string, error)
}

// Resolver maps a device name or alias to a device ID.
type Resolver interface {
	Resolve(name string) (string, error)
}

// Action is what a DeviceCommand does.
type Action string

// Actions.
const (
	ActionOn       Action = "on"
	ActionOff      Action = "off"
	ActionSetValue Action = "set_value"
)

// DeviceCommand is a resolved instruction for one actuator.
type DeviceCommand struct {
	DeviceID string `json:"device_id"`
	Action   Action `json:"action"`
	Value    int    `json:"value,omitempty"`
}

func (c DeviceCommand) String() string {
	if c.Action == ActionSetValue {
		return fmt.Sprintf("%s %s(%d)", c.DeviceID, c.Action, c.Value)
	}
	return fmt.Sprintf("%s %s", c.DeviceID, c.Action)
}

// ResolutionKind distinguishes device commands from special commands.
type ResolutionKind string

// Resolution kinds.
const (
	ResolutionDevice  ResolutionKind = "device"
	ResolutionLeaving ResolutionKind = "leaving"
)

// Resolution is the outcome of ResolveCommand.
type Resolution struct {
	Kind    ResolutionKind `json:"kind"`
	Command DeviceCommand  `json:"command,omitempty"`
	Label   string         `json:"label"`
}

// IsLeaving reports whether the resolution is the leaving command.
func (r Resolution) IsLeaving() bool {
	return r.Kind == ResolutionLeaving
}
