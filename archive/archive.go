// Package archive keeps the finalized stories of a run in memory: the retry
// gate scans it for the non-repetition check and the memory keeper's context
// is built from its summaries. Entries are append-only; a story enters the
// archive exactly once, when it is finalized.
package archive

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one finalized story with the memory-keeper summary recorded for it.
type Entry struct {
	Index   int
	Title   string
	Text    string
	Summary string
}

// Archive is a process-local append-only store of finalized stories.
// Concurrency: protected by RWMutex; one run writes sequentially but
// concurrent runs may share read helpers through independent instances.
type Archive struct {
	mu      sync.RWMutex
	entries []Entry
	byIndex map[int]struct{}
}

// New creates an empty archive.
func New() *Archive {
	return &Archive{byIndex: map[int]struct{}{}}
}

// Add appends a finalized story. Re-adding an index is rejected since a
// finalized story is immutable.
func (a *Archive) Add(e Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.byIndex[e.Index]; exists {
		return fmt.Errorf("story %d already archived", e.Index)
	}
	a.byIndex[e.Index] = struct{}{}
	a.entries = append(a.entries, e)
	return nil
}

// Len returns the number of archived stories.
func (a *Archive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Entries returns a snapshot of all archived stories in insertion order.
func (a *Archive) Entries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Texts returns the full story texts in insertion order, the reference set
// for the non-repetition check.
func (a *Archive) Texts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Text
	}
	return out
}

// Summaries renders the memory-keeper summaries as the prior-stories context
// block for the next story's drafting phase.
func (a *Archive) Summaries() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.entries) == 0 {
		return ""
	}
	parts := []string{"Previous Story Summaries:"}
	for _, e := range a.entries {
		summary := e.Summary
		if summary == "" {
			summary = truncate(e.Text, 200)
		}
		parts = append(parts, fmt.Sprintf("Story %d (%s): %s", e.Index, e.Title, summary))
	}
	return strings.Join(parts, "\n")
}

// Search performs a simple substring match over archived texts and
// summaries, returning matching entries up to limit. Suitable for the small
// per-run archive; swap for a semantic index if runs ever grow large.
func (a *Archive) Search(query string, limit int) []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []Entry
	for _, e := range a.entries {
		if limit > 0 && len(out) >= limit {
			break
		}
		if query == "" || strings.Contains(e.Text, query) || strings.Contains(e.Summary, query) {
			out = append(out, e)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
