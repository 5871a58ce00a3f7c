package assistant

import (
	"strings"

	"github.com/nerrad567/smartaura-core/internal/actuator"
)

// Device describes one controllable device to the classifiers.
type Device struct {
	// Label is the device part of a command label, e.g. "ac".
	Label    string
	Kind     actuator.Kind
	Keywords []string
}

var kindWords = map[actuator.Kind][]string{
	actuator.KindLight: {"light", "lights", "lamp"},
	actuator.KindAC:    {"ac", "air conditioner", "air conditioning", "aircon", "thermostat"},
	actuator.KindFan:   {"fan"},
}

// DevicesFromSpecs derives classifier devices from the actuator specs.
// The label is the first alias, or the ID when there is none.
func DevicesFromSpecs(specs []actuator.DeviceSpec) []Device {
	out := make([]Device, 0, len(specs))
	for _, s := range specs {
		label := s.ID
		if len(s.Aliases) > 0 {
			label = strings.ToLower(s.Aliases[0])
		}
		seen := map[string]bool{}
		var kw []string
		add := func(w string) {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" && !seen[w] {
				seen[w] = true
				kw = append(kw, w)
			}
		}
		for _, a := range s.Aliases {
			add(a)
		}
		add(s.Name)
		for _, w := range kindWords[s.Kind] {
			add(w)
		}
		out = append(out, Device{Label: label, Kind: s.Kind, Keywords: kw})
	}
	return out
}
