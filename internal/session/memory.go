package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTTL is the session expiry window used when none is configured.
const DefaultTTL = 60 * time.Minute

// MemoryStore is the in-process Store. Records do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[Key]*Context
	ttl      time.Duration
}

// NewMemoryStore creates a MemoryStore with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[Key]*Context),
		ttl:      ttl,
	}
}

// Load returns the live record for key, evicting it first if expired.
func (s *MemoryStore) Load(_ context.Context, key Key) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	if sess.Expired(time.Now(), s.ttl) {
		delete(s.sessions, key)
		log.Debug().Str("session", key.String()).Msg("Evicted expired session on load")
		return nil, nil
	}
	return sess, nil
}

// Save upserts the record under its own key.
func (s *MemoryStore) Save(_ context.Context, sess *Context) error {
	s.mu.Lock()
	s.sessions[sess.Key()] = sess
	s.mu.Unlock()
	return nil
}

// Sweep drops every record whose last-seen time is older than the TTL.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for key, sess := range s.sessions {
		if sess.Expired(now, s.ttl) {
			delete(s.sessions, key)
			swept++
		}
	}
	if swept > 0 {
		log.Debug().Int("count", swept).Msg("Swept expired sessions")
	}
	return swept, nil
}

// Len reports the number of live records; used by tests and diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
