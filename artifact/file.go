package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore writes artifacts as plain files under a single directory using a
// write-to-temp-then-rename pattern. Finalized names are tracked in memory
// for the lifetime of the store, which matches the one-run-per-store usage.
type FileStore struct {
	dir       string
	mu        sync.Mutex
	finalized map[string]struct{}
}

// NewFileStore creates the output directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileStore{dir: dir, finalized: map[string]struct{}{}}, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

// Persist writes data to the named artifact atomically. For a finalized
// artifact, identical content is a no-op and different content is rejected.
func (s *FileStore) Persist(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	if _, frozen := s.finalized[name]; frozen {
		existing, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read finalized artifact %s: %w", name, err)
		}
		if bytes.Equal(existing, data) {
			return nil
		}
		return fmt.Errorf("artifact %s: %w", name, ErrImmutableArtifact)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	// Ensure the temp file never survives a failed write.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Finalize marks the named artifact immutable.
func (s *FileStore) Finalize(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("artifact %s: %w", name, ErrNotFound)
	}
	s.finalized[name] = struct{}{}
	return nil
}

// Get returns the artifact content or ErrNotFound.
func (s *FileStore) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// List returns the artifact names present in the directory, sorted.
// Leftover temp files from interrupted writes are excluded.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if matched, _ := filepath.Match("*.tmp-*", e.Name()); matched {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
