package domain

import "time"

// Session is a login. Tokens reference it by ID, so deleting it revokes them.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserAgent  string    `json:"user_agent,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewSession starts a session for userID lasting ttl from now.
func NewSession(id, userID string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the session has ended at t.
func (s *Session) IsExpired(t time.Time) bool {
	return s == nil || !s.ExpiresAt.After(t)
}

// TTL is the time left at t, never negative.
func (s *Session) TTL(t time.Time) time.Duration {
	if s.IsExpired(t) {
		return 0
	}
	return s.ExpiresAt.Sub(t)
}
