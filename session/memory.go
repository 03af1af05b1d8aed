package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory transcript store. Transcripts are deep-copied
// on save and load to prevent external mutation.
type MemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string]*Transcript
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transcripts: make(map[string]*Transcript)}
}

// Save stores a copy of t.
func (m *MemoryStore) Save(_ context.Context, t *Transcript) error {
	if t == nil {
		return ErrNil
	}
	if !ValidID(t.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, t.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[t.ID] = t.Clone()
	return nil
}

// Load returns a copy of the transcript with the given ID.
func (m *MemoryStore) Load(_ context.Context, id string) (*Transcript, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transcripts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return t.Clone(), nil
}

// List returns copies of all transcripts, most recently updated first.
func (m *MemoryStore) List(_ context.Context) ([]*Transcript, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Transcript, 0, len(m.transcripts))
	for _, t := range m.transcripts {
		out = append(out, t.Clone())
	}
	sortByUpdated(out)
	return out, nil
}

// Delete removes a transcript.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transcripts[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.transcripts, id)
	return nil
}

func sortByUpdated(ts []*Transcript) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].UpdatedAt.Equal(ts[j].UpdatedAt) {
			return ts[i].ID < ts[j].ID
		}
		return ts[i].UpdatedAt.After(ts[j].UpdatedAt)
	})
}
