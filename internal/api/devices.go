package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartaura-core/internal/actuator"
)

// setStateRequest is the body of PUT /devices/{id}/state. At least one
// field is required; a setting without "on" requires the device to be on.
type setStateRequest struct {
	On      *bool `json:"on"`
	Setting *int  `json:"setting"`
}

// handleListDevices returns every device with the automation guard.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Snapshot())
}

// handleGetDevice returns one device by ID or alias.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	st, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeActuatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleSetDeviceState applies a manual command to one device.
func (s *Server) handleSetDeviceState(w http.ResponseWriter, r *http.Request) {
	var req setStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.On == nil && req.Setting == nil {
		writeBadRequest(w, "on or setting is required")
		return
	}

	id, err := s.registry.Resolve(chi.URLParam(r, "id"))
	if err != nil {
		writeActuatorError(w, err)
		return
	}

	var st actuator.State
	switch {
	case req.On != nil && !*req.On:
		st, err = s.registry.SetOn(id, false, actuator.SourceManual)
	case req.On != nil && req.Setting != nil:
		st, err = s.registry.TurnOnAt(id, *req.Setting, actuator.SourceManual)
	case req.On != nil:
		st, err = s.registry.SetOn(id, true, actuator.SourceManual)
	default:
		st, err = s.registry.SetSetting(id, *req.Setting, actuator.SourceManual)
	}
	if err != nil {
		writeActuatorError(w, err)
		return
	}

	s.logger.Info("device state set via API", "device_id", id, "on", st.On, "request_id", r.Context().Value(ctxKeyRequestID))
	writeJSON(w, http.StatusOK, st)
}

// handleLeave switches everything off, re-arms automation and idles the
// voice session.
func (s *Server) handleLeave(w http.ResponseWriter, _ *http.Request) {
	var states []actuator.State
	if s.assistant != nil {
		states = s.assistant.Leave(actuator.SourceLeaving)
	} else {
		states = s.automation.Leave(actuator.SourceLeaving)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":            states,
		"automation_engaged": s.registry.AutomationEngaged(),
	})
}
