// Package session holds the authenticated user's identity and token pair.
// It is created at sign-in, passed down explicitly to everything that
// needs the current identity, and torn down at sign-out.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"confmatch/pkg/logger"
)

// ErrNotAuthenticated is returned when a token is requested from an ended
// or never-started session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Identity is the signed-in user as asserted by the access token.
type Identity struct {
	ID    string
	Email string
	Name  string
}

type claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	identity  Identity
	access    string
	refresh   string
	expiresAt time.Time
	active    bool
}

func New() *Session { return &Session{} }

// Begin installs a token pair and derives the identity from the access
// token claims. The token is not verified here; the platform verifies it
// on every request, the client only reads public claims.
func (s *Session) Begin(access, refresh string) error {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &c); err != nil {
		return err
	}
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	s.identity = Identity{ID: id, Email: strings.ToLower(c.Email), Name: c.Name}
	if c.ExpiresAt != nil {
		s.expiresAt = c.ExpiresAt.Time
	} else {
		s.expiresAt = time.Time{}
	}
	s.active = true
	logger.Info("session_started", "user", id, "expires", s.expiresAt)
	return nil
}

// Rotate replaces the token pair after a refresh, keeping the session
// active. An empty refresh token keeps the previous one.
func (s *Session) Rotate(access, refresh string) error {
	s.mu.RLock()
	prevRefresh := s.refresh
	s.mu.RUnlock()
	if refresh == "" {
		refresh = prevRefresh
	}
	return s.Begin(access, refresh)
}

// AccessToken returns the current bearer token.
func (s *Session) AccessToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active {
		return "", ErrNotAuthenticated
	}
	return s.access, nil
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active || s.refresh == "" {
		return "", ErrNotAuthenticated
	}
	return s.refresh, nil
}

// Identity returns the signed-in user. Zero value when not authenticated.
func (s *Session) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Authenticated reports whether the session is active.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ExpiresSoon reports whether the access token expires within the window.
func (s *Session) ExpiresSoon(window time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active || s.expiresAt.IsZero() {
		return false
	}
	return time.Until(s.expiresAt) < window
}

// End tears the session down (sign-out).
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		logger.Info("session_ended", "user", s.identity.ID)
	}
	s.identity = Identity{}
	s.access, s.refresh = "", ""
	s.expiresAt = time.Time{}
	s.active = false
}
