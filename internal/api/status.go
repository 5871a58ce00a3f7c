package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/smartaura-core/internal/voice"
)

// maxQueryLength bounds typed assistant input.
const maxQueryLength = 500

// assistantQuery is the body of POST /assistant/query.
type assistantQuery struct {
	Text string `json:"text"`
}

// voiceStatus is the response of GET /voice.
type voiceStatus struct {
	Available    bool        `json:"available"`
	State        voice.State `json:"state"`
	LastActivity *time.Time  `json:"last_activity,omitempty"`
}

func (s *Server) handleGetSensors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sensors.Latest())
}

// handleGetAutomation returns the controller state and its last cycle.
func (s *Server) handleGetAutomation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             s.automation.Status(),
		"automation_engaged": s.registry.AutomationEngaged(),
	})
}

// handleGetVoice returns the voice session state.
func (s *Server) handleGetVoice(w http.ResponseWriter, _ *http.Request) {
	if s.assistant == nil {
		writeJSON(w, http.StatusOK, voiceStatus{State: voice.StateIdle})
		return
	}
	session := s.assistant.Session()
	out := voiceStatus{Available: true, State: session.State()}
	if last := session.LastActivity(); !last.IsZero() {
		out.LastActivity = &last
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAssistantQuery routes typed text through the assistant. The reply
// is returned rather than spoken.
func (s *Server) handleAssistantQuery(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeUnavailable(w, "assistant is not configured")
		return
	}

	var req assistantQuery
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeBadRequest(w, "text is required")
		return
	}
	if len(text) > maxQueryLength {
		writeBadRequest(w, "text is too long")
		return
	}

	writeJSON(w, http.StatusOK, s.assistant.HandleText(r.Context(), text))
}
