package entity

import "sync"

// SessionSnapshot is a point-in-time copy of a Session
type SessionSnapshot struct {
	Token        string `json:"token,omitempty"`
	HasToken     bool   `json:"has_token"`
	CSRFToken    string `json:"csrf_token,omitempty"`
	HasCSRFToken bool   `json:"has_csrf_token"`
}

// Session holds the bearer token and CSRF token for the lifetime of one client.
// Values are never validated and the last write wins.
type Session struct {
	mutex        sync.RWMutex
	token        string
	hasToken     bool
	csrfToken    string
	hasCSRFToken bool
}

// NewSession creates an empty, unauthenticated session
func NewSession() *Session {
	return &Session{}
}

// Token returns the bearer token and whether one has been set
func (s *Session) Token() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token, s.hasToken
}

// CSRFToken returns the CSRF token and whether one has been set
func (s *Session) CSRFToken() (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.csrfToken, s.hasCSRFToken
}

// SetToken overwrites the bearer token
func (s *Session) SetToken(token string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
	s.hasToken = true
}

// SetCSRFToken overwrites the CSRF token
func (s *Session) SetCSRFToken(token string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.csrfToken = token
	s.hasCSRFToken = true
}

// Authenticated reports whether a non-empty bearer token is held
func (s *Session) Authenticated() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.hasToken && s.token != ""
}

// Clear forgets both tokens
func (s *Session) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token, s.hasToken = "", false
	s.csrfToken, s.hasCSRFToken = "", false
}

// Snapshot copies the current values
func (s *Session) Snapshot() SessionSnapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return SessionSnapshot{
		Token:        s.token,
		HasToken:     s.hasToken,
		CSRFToken:    s.csrfToken,
		HasCSRFToken: s.hasCSRFToken,
	}
}
