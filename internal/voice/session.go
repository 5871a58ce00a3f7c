package voice

import (
	"sync"
	"time"
)

// State is the voice session state.
type State string

// Session states.
const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

// DefaultIdleTimeout is how long an active session waits for input.
const DefaultIdleTimeout = 30 * time.Second

// Session is the idle/active state machine. It is safe for concurrent use.
type Session struct {
	timeout time.Duration

	mu           sync.Mutex
	state        State
	lastActivity time.Time
}

// NewSession returns an idle session. A non-positive timeout uses
// DefaultIdleTimeout.
func NewSession(timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Session{timeout: timeout, state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActivity returns the time of the last wake or utterance.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// HandleWake activates the session. It reports whether the state changed.
// Waking an active session only refreshes its activity time.
func (s *Session) HandleWake(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now
	if s.state == StateActive {
		return false
	}
	s.state = StateActive
	return true
}

// Touch records input on an active session. It is a no-op when idle.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		s.lastActivity = now
	}
}

// Expire moves an active session that has seen no input for the timeout to
// idle. It returns true only on that transition, so the caller announces
// going idle exactly once per active period.
func (s *Session) Expire(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || now.Sub(s.lastActivity) <= s.timeout {
		return false
	}
	s.state = StateIdle
	return true
}

// ForceIdle moves the session to idle without waiting for the timeout.
// It reports whether the state changed.
func (s *Session) ForceIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle {
		return false
	}
	s.state = StateIdle
	return true
}
