package oauth

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultStateTTL is how long an authorization state lives before cleanup
const DefaultStateTTL = 10 * time.Minute

// StateStore tracks pending OAuth authorization states in memory with TTL
// cleanup. A state is single-use: Consume removes it.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time // state -> expiry
	ttl    time.Duration
	stopCh chan struct{}
}

// NewStateStore creates a new state store with a cleanup goroutine
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl == 0 {
		ttl = DefaultStateTTL
	}
	s := &StateStore{
		states: make(map[string]time.Time),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create generates a new random state and registers it
func (s *StateStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := generateState()
	s.states[state] = time.Now().Add(s.ttl)
	return state
}

// Consume validates a state returned on the OAuth callback and removes it.
// Returns false for unknown or expired states.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(expiry)
}

// Stop stops the cleanup goroutine
func (s *StateStore) Stop() {
	close(s.stopCh)
}

func (s *StateStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *StateStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
		}
	}
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
