package session

import (
	"fmt"
	"sync"

	"github.com/hupe1980/storymesh/core"
)

// Field names a mergeable slice of the session state.
type Field int

const (
	// FieldStoryArc holds the planner's series arc (replace-only).
	FieldStoryArc Field = iota
	// FieldWorldFacts holds world-builder facts (append-or-overwrite).
	FieldWorldFacts
	// FieldContinuity holds the continuity log (append-only).
	FieldContinuity
	// FieldOutline holds the parsed outline (replace-only).
	FieldOutline
	// FieldDraft holds a story draft (replace-only, keyed by index).
	FieldDraft
)

// String returns a stable name for logs and errors.
func (f Field) String() string {
	switch f {
	case FieldStoryArc:
		return "story_arc"
	case FieldWorldFacts:
		return "world_facts"
	case FieldContinuity:
		return "continuity"
	case FieldOutline:
		return "outline"
	case FieldDraft:
		return "draft"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Merge carries a validated agent result into one session field. Only the
// members matching Field are consulted.
type Merge struct {
	Field      Field
	StoryArc   string
	WorldFacts map[string]string
	Continuity []string
	RawOutline string
	Outline    []core.StoryOutline
	Draft      *core.StoryDraft
}

// ErrMergeContention is returned when two merges target the same field of
// the same session at once.
var ErrMergeContention = fmt.Errorf("concurrent merge into the same field")

// InMemoryStore is a process-local session store. Sessions are owned by
// their scheduler; the store's job is bookkeeping plus the per-field merge
// exclusivity guarantee.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	fieldMu  map[string]map[Field]*sync.Mutex
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		fieldMu:  make(map[string]map[Field]*sync.Mutex),
	}
}

// Create registers a new session for a run.
func (s *InMemoryStore) Create(id, initialPrompt string, storyCount int) (*core.Session, error) {
	sess, err := core.NewSession(id, initialPrompt, storyCount)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}
	s.sessions[id] = sess
	s.fieldMu[id] = make(map[Field]*sync.Mutex)
	return sess, nil
}

// Get returns the session for the given id.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

// Snapshot returns an immutable view of the session state.
func (s *InMemoryStore) Snapshot(id string) (core.SessionView, error) {
	sess, err := s.Get(id)
	if err != nil {
		return core.SessionView{}, err
	}
	return sess.Snapshot(), nil
}

// Merge applies a validated result into the session. It fails fast with
// ErrMergeContention when another merge into the same field is in flight.
func (s *InMemoryStore) Merge(id string, m Merge) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	lock := s.fieldLock(id, m.Field)
	if !lock.TryLock() {
		return fmt.Errorf("session %s field %s: %w", id, m.Field, ErrMergeContention)
	}
	defer lock.Unlock()

	switch m.Field {
	case FieldStoryArc:
		sess.SetStoryArc(m.StoryArc)
	case FieldWorldFacts:
		for k, v := range m.WorldFacts {
			sess.SetWorldFact(k, v)
		}
	case FieldContinuity:
		for _, entry := range m.Continuity {
			sess.AppendContinuity(entry)
		}
	case FieldOutline:
		sess.SetOutline(m.RawOutline, m.Outline)
	case FieldDraft:
		if m.Draft == nil {
			return fmt.Errorf("draft merge without draft")
		}
		sess.PutDraft(m.Draft)
	default:
		return fmt.Errorf("unknown merge field %s", m.Field)
	}
	return nil
}

func (s *InMemoryStore) fieldLock(id string, f Field) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	locks, ok := s.fieldMu[id]
	if !ok {
		locks = make(map[Field]*sync.Mutex)
		s.fieldMu[id] = locks
	}
	lock, ok := locks[f]
	if !ok {
		lock = &sync.Mutex{}
		locks[f] = lock
	}
	return lock
}
