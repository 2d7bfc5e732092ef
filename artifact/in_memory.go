package artifact

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// InMemoryStore is a trivial in-process Store implementation useful for
// tests and single-process prototypes. It keeps all artifacts in a map
// guarded by a mutex. Data is copied on save / retrieval to avoid accidental
// external mutation of internal buffers. It honors the same finalization
// semantics as FileStore.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
	finalized map[string]struct{}
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		artifacts: make(map[string][]byte),
		finalized: make(map[string]struct{}),
	}
}

// Persist stores the artifact bytes under name. The input slice is copied
// before storage. Finalized artifacts accept only identical content.
func (s *InMemoryStore) Persist(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, frozen := s.finalized[name]; frozen {
		if bytes.Equal(s.artifacts[name], data) {
			return nil
		}
		return fmt.Errorf("artifact %s: %w", name, ErrImmutableArtifact)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.artifacts[name] = cp
	return nil
}

// Finalize marks the named artifact immutable.
func (s *InMemoryStore) Finalize(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[name]; !ok {
		return fmt.Errorf("artifact %s: %w", name, ErrNotFound)
	}
	s.finalized[name] = struct{}{}
	return nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (s *InMemoryStore) Get(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[name]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", name, ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the stored artifact names, sorted. The slice is a snapshot
// and safe for caller mutation.
func (s *InMemoryStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.artifacts))
	for name := range s.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
