// Package session provides the store through which the turn scheduler
// mutates its core.Session. All writes flow through Merge, which enforces
// the field semantics of the shared state: append-only for continuity and
// world facts, replace-only for the story arc, outline and drafts.
//
// Merges into the same field of the same session are mutually exclusive;
// a second concurrent merge fails fast instead of blocking. The current
// scheduler is strictly sequential so this acts as an invariant check, but
// it keeps the store safe should a future design parallelize within a phase.
package session
