package nav

import (
	"sync"

	"clubgate/internal/menu"
)

// Session is the session-scoped navigation context: the menu cache, the live
// route table and the registration flag live here instead of in ambient
// package state, so every login (and every test) starts from a clean slate.
// It is rebuilt on process restart, which is what resets RegistrationState.
type Session struct {
	ID     string
	Cache  *menu.Cache
	Routes *RouteTable

	mu            sync.Mutex
	registration  RegistrationState
	pendingReload bool
}

func NewSession(id string, cache *menu.Cache, routes *RouteTable) *Session {
	return &Session{ID: id, Cache: cache, Routes: routes}
}

// Registration returns the current dynamic-route registration state.
func (s *Session) Registration() RegistrationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registration
}

// SetRegistration records a state transition.
func (s *Session) SetRegistration(state RegistrationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registration = state
}

// ArmReload sets the pending-reload flag. Called by the unload beacon just
// before the page goes away.
func (s *Session) ArmReload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingReload = true
}

// ConsumeReload reads and clears the pending-reload flag. One-shot: the
// second read is always false.
func (s *Session) ConsumeReload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	armed := s.pendingReload
	s.pendingReload = false
	return armed
}
