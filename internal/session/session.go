// Package session attaches a user to requests that carry a session
// cookie or a bearer token, ahead of any Basic Auth resolution.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// DefaultTTL applies to sessions saved without a TTL.
const DefaultTTL = 30 * time.Minute

// Session is an authenticated login.
type Session struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	IP       string    `json:"ip,omitempty"`
	Method   string    `json:"method"` // basic / token
	LoginAt  time.Time `json:"login_at"`
	TTL      int       `json:"ttl"` // seconds
}

// New returns a session for username with a fresh random ID.
func New(username, ip, method string, ttl time.Duration) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Username: username,
		IP:       ip,
		Method:   method,
		LoginAt:  time.Now(),
		TTL:      int(ttl / time.Second),
	}
}

func (s *Session) ttl() time.Duration {
	ttl := time.Duration(s.TTL) * time.Second
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return ttl
}

// Store keeps sessions by ID.
type Store interface {
	Save(ctx context.Context, s *Session) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)
	Refresh(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteUser drops every session of username and returns how many.
	DeleteUser(ctx context.Context, username string) (int, error)
}
