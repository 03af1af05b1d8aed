package memory

import (
	"context"
	"sync"
)

// SessionStore keeps entries in memory for the lifetime of the process.
type SessionStore struct {
	mu      sync.RWMutex
	scope   Scope
	entries map[string]string
}

var _ Store = (*SessionStore)(nil)

// NewSessionStore creates an empty SessionStore in the Temporary scope.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		scope:   Temporary,
		entries: make(map[string]string),
	}
}

func (s *SessionStore) Scope() Scope { return s.scope }

// Keys returns the current keys in sorted order.
func (s *SessionStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.entries), nil
}

// Put inserts or overwrites key.
func (s *SessionStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *SessionStore) Get(_ context.Context, key string) (Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return Lookup{Scope: s.scope, Key: key, Value: v, Found: ok}, nil
}

// Delete removes key. Absent keys are ignored.
func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of entries.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
