package command

import (
	"fmt"
	"strconv"
	"strings"
)

const controlInfix = "-control-"

// normalizeLabel lowercases a classifier reply and strips the quotes and
// trailing punctuation chat models tend to add.
func normalizeLabel(label string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(label)), "\"'`.!")
}

// ParseIntent maps an intent label to an Intent.
func ParseIntent(label string) Intent {
	switch normalizeLabel(label) {
	case "command-query":
		return IntentCommand
	case "general-query":
		return IntentGeneral
	default:
		return IntentUnknown
	}
}

// ParseLabel maps a command label to a Resolution. Device names are looked
// up through devices.
func ParseLabel(label string, devices Resolver) (Resolution, error) {
	norm := normalizeLabel(label)

	switch norm {
	case "leaving", "leave-home", "leaving-home":
		return Resolution{Kind: ResolutionLeaving, Label: norm}, nil
	case "no-access":
		return Resolution{Label: norm}, ErrNoAccess
	}

	device, arg, ok := strings.Cut(norm, controlInfix)
	if !ok || device == "" || arg == "" {
		return Resolution{Label: norm}, fmt.Errorf("%w: %q", ErrUnrecognized, label)
	}

	id, err := devices.Resolve(device)
	if err != nil {
		return Resolution{Label: norm}, fmt.Errorf("%w: %s", ErrNoAccess, device)
	}

	cmd := DeviceCommand{DeviceID: id}
	switch arg {
	case "on":
		cmd.Action = ActionOn
	case "off":
		cmd.Action = ActionOff
	default:
		v, err := strconv.Atoi(arg)
		if err != nil {
			return Resolution{Label: norm}, fmt.Errorf("%w: %q", ErrUnrecognized, label)
		}
		cmd.Action = ActionSetValue
		cmd.Value = v
	}

	return Resolution{Kind: ResolutionDevice, Command: cmd, Label: norm}, nil
}
