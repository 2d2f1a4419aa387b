package session

import (
	"context"
	"sync"
	"time"

	"github.com/thejerf/abtime"
)

// MemoryStore keeps sessions in process memory. Expired sessions are
// dropped on access and by Purge.
type MemoryStore struct {
	abtime.AbstractTime

	mu       sync.Mutex
	sessions map[string]memoryEntry
}

// sweepTimer is the abtime id of the purge timer.
const sweepTimer = iota

// SweepInterval is how often Serve purges expired sessions.
var SweepInterval = time.Minute

type memoryEntry struct {
	sess    Session
	expires time.Time
}

// NewMemoryStore returns an empty store. A nil clock means real time.
func NewMemoryStore(clock abtime.AbstractTime) *MemoryStore {
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &MemoryStore{
		AbstractTime: clock,
		sessions:     make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = memoryEntry{sess: *sess, expires: s.Now().Add(sess.ttl())}
	return nil
}

// getLocked returns the live entry for id, dropping it when expired.
func (s *MemoryStore) getLocked(id string) (memoryEntry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.Now().Before(e.expires) {
		delete(s.sessions, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.getLocked(id)
	if !ok {
		return nil, ErrNotFound
	}
	sess := e.sess
	return &sess, nil
}

func (s *MemoryStore) Refresh(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.getLocked(id)
	if !ok {
		return false, nil
	}
	e.expires = s.Now().Add(ttl)
	s.sessions[id] = e
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.getLocked(id)
	delete(s.sessions, id)
	return ok, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.sessions {
		if e.sess.Username != username {
			continue
		}
		if s.Now().Before(e.expires) {
			n++
		}
		delete(s.sessions, id)
	}
	return n, nil
}

// Purge drops expired sessions and returns how many.
func (s *MemoryStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	n := 0
	for id, e := range s.sessions {
		if !now.Before(e.expires) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Serve purges periodically until ctx is done. It runs as a supervised
// service.
func (s *MemoryStore) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.After(SweepInterval, sweepTimer):
			s.Purge()
		}
	}
}
