package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Handle("/dashboard/*", http.StripPrefix("/dashboard", s.dashboard))
	r.Handle("/dashboard", http.RedirectHandler("/dashboard/", http.StatusMovedPermanently))

	// Dashboard routes
	r.Get("/sensors", s.handleLegacySensors)
	r.Get("/lights", s.handleLegacyLights)
	r.Get("/logs", s.handleLegacyLogs)
	r.Get("/voicelogs", s.handleLegacyVoiceLogs)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(s.requireControl)

		r.Get("/light/{device}", s.handleLegacyLight)
		r.Get("/ac/temp", s.handleLegacyACTemp)
		r.Get("/fan/speed", s.handleLegacyFanSpeed)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Get("/sensors", s.handleGetSensors)
			r.Get("/devices", s.handleListDevices)
			r.Get("/devices/{id}", s.handleGetDevice)
			r.Get("/automation", s.handleGetAutomation)
			r.Get("/voice", s.handleGetVoice)
			r.Get("/events", s.handleLegacyLogs)
			r.Get("/voice/log", s.handleLegacyVoiceLogs)

			// Control routes
			r.Group(func(r chi.Router) {
				r.Use(s.requireControl)

				r.Put("/devices/{id}/state", s.handleSetDeviceState)
				r.Post("/leave", s.handleLeave)
				r.Post("/assistant/query", s.handleAssistantQuery)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
