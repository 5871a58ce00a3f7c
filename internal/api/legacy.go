package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartaura-core/internal/actuator"
)

// handleLegacySensors returns the latest sensor snapshot.
func (s *Server) handleLegacySensors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sensors.Latest())
}

// handleLegacyLights returns the flat state map the dashboard polls:
//
//	{"kitchen":"on","livingroom":"off","bedroom":"off","ac_temp":24,"fan_speed":null}
//
// Each device is keyed by its first alias. The first AC and fan also
// report their setting, null while off.
func (s *Server) handleLegacyLights(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]any)
	var acSeen, fanSeen bool
	for _, d := range s.registry.List() {
		out[s.legacyKey(d)] = d.Status()
		switch {
		case d.Kind == actuator.KindAC && !acSeen:
			out["ac_temp"] = d.Setting
			acSeen = true
		case d.Kind == actuator.KindFan && !fanSeen:
			out["fan_speed"] = d.Setting
			fanSeen = true
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLegacyLight switches a device on or off:
// GET /light/{device}?state=on|off.
func (s *Server) handleLegacyLight(w http.ResponseWriter, r *http.Request) {
	var on bool
	switch strings.ToLower(r.URL.Query().Get("state")) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		writeBadRequest(w, "state must be on or off")
		return
	}

	id, err := s.registry.Resolve(chi.URLParam(r, "device"))
	if err != nil {
		writeActuatorError(w, err)
		return
	}
	st, err := s.registry.SetOn(id, on, actuator.SourceManual)
	if err != nil {
		writeActuatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleLegacyACTemp sets the AC temperature: GET /ac/temp?value=N.
func (s *Server) handleLegacyACTemp(w http.ResponseWriter, r *http.Request) {
	s.setLegacySetting(w, r, actuator.KindAC, "value")
}

// handleLegacyFanSpeed sets the fan speed: GET /fan/speed?level=N.
func (s *Server) handleLegacyFanSpeed(w http.ResponseWriter, r *http.Request) {
	s.setLegacySetting(w, r, actuator.KindFan, "level")
}

// setLegacySetting applies a setting to the device named by ?device=, or
// to the first device of kind when none is named.
func (s *Server) setLegacySetting(w http.ResponseWriter, r *http.Request, kind actuator.Kind, param string) {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(param)))
	if err != nil {
		writeBadRequest(w, param+" must be an integer")
		return
	}

	id, err := s.deviceOfKind(r.URL.Query().Get("device"), kind)
	if err != nil {
		writeActuatorError(w, err)
		return
	}
	st, err := s.registry.SetSetting(id, value, actuator.SourceManual)
	if err != nil {
		writeActuatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleLegacyLogs returns the system event log, newest first.
func (s *Server) handleLegacyLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.events.Events(r.Context())
	if err != nil {
		s.logger.Error("reading event log failed", "error", err)
		writeInternalError(w, "failed to read event log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleLegacyVoiceLogs returns the assistant Q/A log, newest first.
func (s *Server) handleLegacyVoiceLogs(w http.ResponseWriter, r *http.Request) {
	qas, err := s.events.QAs(r.Context())
	if err != nil {
		s.logger.Error("reading voice log failed", "error", err)
		writeInternalError(w, "failed to read voice log")
		return
	}
	writeJSON(w, http.StatusOK, qas)
}

func (s *Server) deviceOfKind(name string, kind actuator.Kind) (string, error) {
	if name != "" {
		return s.registry.Resolve(name)
	}
	for _, d := range s.registry.List() {
		if d.Kind == kind {
			return d.ID, nil
		}
	}
	return "", actuator.ErrDeviceNotFound
}

// legacyKey is the dashboard key for a device: its first alias, or its ID.
func (s *Server) legacyKey(d actuator.State) string {
	if aliases := s.registry.Aliases(d.ID); len(aliases) > 0 {
		return aliases[0]
	}
	return d.ID
}
