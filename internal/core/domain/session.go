package domain

import "time"

// Session is a time-bounded credential for one logical service.
// Sessions are replaced on refresh, never mutated in place.
type Session struct {
	ServiceID ServiceID `json:"service_id"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Authenticated reports whether the session carries a usable token.
// A session without a token signals "unauthenticated request permitted",
// cached after a failed handshake to suppress hot-retry storms.
func (s *Session) Authenticated() bool {
	return s.Token != ""
}
