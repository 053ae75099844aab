package credentials

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe in-memory implementation of Store
type InMemoryStore struct {
	mu      sync.RWMutex
	session Session
}

// NewInMemoryStore creates a store holding the logged-out session
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{session: LoggedOut()}
}

// Load returns a copy of the current session
func (s *InMemoryStore) Load(_ context.Context) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.session.clone(), nil
}

// Replace stores a copy of session after validating it
func (s *InMemoryStore) Replace(_ context.Context, session Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = session.clone()
	return nil
}
