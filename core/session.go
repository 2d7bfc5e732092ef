package core

import (
	"fmt"
	"sync"
	"time"
)

// Session is the mutable shared context for one run: the single source of
// truth every agent request is built from. It is safe for concurrent access.
//
// Contract:
//   - World facts are append-or-overwrite; a fact is never silently dropped
//   - The continuity log is append-only
//   - The story index never decreases within a run
//   - Snapshot returns deep copies so callers cannot mutate internal state
type Session struct {
	ID            string
	InitialPrompt string
	StoryCount    int

	storyArc   string
	worldFacts map[string]string
	continuity []string
	rawOutline string
	outline    []StoryOutline
	phase      Phase
	storyIndex int
	drafts     map[int]*StoryDraft

	created time.Time
	updated time.Time
	mu      sync.RWMutex
}

// NewSession creates a session for one run. storyCount must be >= 1.
func NewSession(id, initialPrompt string, storyCount int) (*Session, error) {
	if storyCount < 1 {
		return nil, fmt.Errorf("story count must be >= 1, got %d", storyCount)
	}
	now := time.Now()
	return &Session{
		ID:            id,
		InitialPrompt: initialPrompt,
		StoryCount:    storyCount,
		worldFacts:    map[string]string{},
		drafts:        map[int]*StoryDraft{},
		phase:         PhasePlanning,
		storyIndex:    1,
		created:       now,
		updated:       now,
	}, nil
}

// SetStoryArc replaces the series story arc.
func (s *Session) SetStoryArc(arc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storyArc = arc
	s.updated = time.Now()
}

// SetWorldFact records or overwrites a world fact.
func (s *Session) SetWorldFact(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.worldFacts[key] = value
	s.updated = time.Now()
}

// AppendContinuity appends an entry to the continuity log.
func (s *Session) AppendContinuity(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.continuity = append(s.continuity, entry)
	s.updated = time.Now()
}

// SetOutline replaces the parsed outline and the raw text it came from.
func (s *Session) SetOutline(raw string, outline []StoryOutline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawOutline = raw
	s.outline = make([]StoryOutline, len(outline))
	copy(s.outline, outline)
	s.updated = time.Now()
}

// SetPhase moves the session to the given phase, enforcing the scheduler's
// transition rules.
func (s *Session) SetPhase(next Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.phase.CanTransition(next) {
		return fmt.Errorf("illegal phase transition %s -> %s", s.phase, next)
	}
	s.phase = next
	s.updated = time.Now()
	return nil
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// StoryIndex returns the 1-based index of the story currently in flight.
func (s *Session) StoryIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storyIndex
}

// AdvanceStory moves the story index forward. Moving backwards is rejected:
// the index never decreases within a run.
func (s *Session) AdvanceStory(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < s.storyIndex {
		return fmt.Errorf("story index cannot decrease: %d -> %d", s.storyIndex, index)
	}
	s.storyIndex = index
	s.updated = time.Now()
	return nil
}

// PutDraft stores (or replaces) the draft for its index.
func (s *Session) PutDraft(d *StoryDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.Index] = d
	s.updated = time.Now()
}

// Draft returns the draft for the given story index, if present.
func (s *Session) Draft(index int) (*StoryDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[index]
	return d, ok
}

// SessionView is an immutable snapshot of the session fields agent requests
// are built from. Maps and slices are deep copies.
type SessionView struct {
	ID            string
	InitialPrompt string
	StoryCount    int
	StoryArc      string
	WorldFacts    map[string]string
	Continuity    []string
	RawOutline    string
	Outline       []StoryOutline
	Phase         Phase
	StoryIndex    int
}

// Snapshot returns a deep-copied view of the session.
func (s *Session) Snapshot() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := SessionView{
		ID:            s.ID,
		InitialPrompt: s.InitialPrompt,
		StoryCount:    s.StoryCount,
		StoryArc:      s.storyArc,
		RawOutline:    s.rawOutline,
		Phase:         s.phase,
		StoryIndex:    s.storyIndex,
		WorldFacts:    make(map[string]string, len(s.worldFacts)),
		Continuity:    make([]string, len(s.continuity)),
		Outline:       make([]StoryOutline, len(s.outline)),
	}
	for k, val := range s.worldFacts {
		v.WorldFacts[k] = val
	}
	copy(v.Continuity, s.continuity)
	copy(v.Outline, s.outline)
	return v
}

// OutlineContext renders the parsed outline as the context block shared with
// every drafting agent. Empty before the outlining phase completes.
func (v SessionView) OutlineContext() string {
	if len(v.Outline) == 0 {
		return ""
	}
	out := "Complete Series Outline:"
	for _, o := range v.Outline {
		out += "\n\n" + o.Prompt()
	}
	return out
}
