// Package session owns the authenticated session: two access tokens with
// separated scopes, the refresh token, and an absolute expiry instant.
// Persistence is pluggable (cookies for the web server, a token file for
// the CLI, memory for tests) and always writes all four fields together —
// a partially persisted session is never observable.
package session

import (
	"errors"
	"math"
	"time"
)

// ErrUnauthenticated is returned when no session exists or the refresh
// exchange was rejected. Callers treat the user as logged out.
var ErrUnauthenticated = errors.New("session: unauthenticated")

// Session holds one user's tokens. InternalToken carries the broad read
// scope and never leaves the trusted boundary; PublicToken carries the
// viewer-only scope and is the only token exposed outside it.
type Session struct {
	InternalToken string    `json:"internal_token"`
	PublicToken   string    `json:"public_token"`
	RefreshToken  string    `json:"refresh_token"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Stale reports whether the session's access tokens have expired.
// ExpiresAt is absolute: stale iff now >= ExpiresAt.
func (s *Session) Stale(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL returns the remaining validity in whole seconds, rounded to nearest.
// Zero or negative means stale.
func (s *Session) TTL(now time.Time) int {
	return int(math.Round(s.ExpiresAt.Sub(now).Seconds()))
}

// Backend persists a session. Load returns (nil, nil) when no session
// exists. Save must persist all four fields atomically.
type Backend interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}
