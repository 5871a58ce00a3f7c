// Package api implements the HTTP API and WebSocket server for SmartAura.
//
// Two route sets share one router:
//   - Legacy dashboard routes at the root (/sensors, /light/{device},
//     /ac/temp, /fan/speed, /lights, /logs, /voicelogs). They keep the
//     shapes the original web dashboard polls.
//   - Versioned routes under /api/v1 for login, device control, automation
//     and voice status, typed assistant queries and the WebSocket push.
//
// Handlers hold no business logic: they translate requests into calls on
// the actuator registry, the sensor cache, the automation controller and the
// voice assistant, and map their errors onto HTTP status codes.
//
// # Security
//
// When security.auth_enabled is set, /api/v1 routes other than health and
// login require a bearer token issued by POST /api/v1/auth/login, and
// control routes require the admin role. WebSocket connections use
// single-use tickets from POST /api/v1/auth/ws-ticket so the token never
// appears in a URL.
//
// # Push channels
//
// The hub broadcasts actuator.changed, sensors.updated, automation.alert and
// voice.session_changed. Clients pick channels with subscribe messages.
package api
