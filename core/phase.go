package core

import "fmt"

// Phase names a stage of the turn scheduler's state machine. A run moves
// through Planning and Outlining once, then cycles Drafting -> Editing ->
// Finalizing per story until Done. Aborted is terminal and reachable from
// every non-terminal phase.
type Phase int

const (
	// PhasePlanning is the initial phase producing the series story arc.
	PhasePlanning Phase = iota
	// PhaseOutlining produces world elements and the per-story outline.
	PhaseOutlining
	// PhaseDrafting produces the memory-keeper context and the story draft.
	PhaseDrafting
	// PhaseEditing reviews and revises the current draft.
	PhaseEditing
	// PhaseFinalizing validates and durably persists the current story.
	PhaseFinalizing
	// PhaseDone means all requested stories reached a terminal status.
	PhaseDone
	// PhaseAborted means the run stopped on an unrecoverable failure;
	// already-finalized artifacts are preserved.
	PhaseAborted
)

// String returns a stable name for logging.
func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseOutlining:
		return "outlining"
	case PhaseDrafting:
		return "drafting"
	case PhaseEditing:
		return "editing"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further agent calls may occur in this phase.
func (p Phase) Terminal() bool { return p == PhaseDone || p == PhaseAborted }

// CanTransition reports whether the scheduler may move from p to next.
// Aborted is reachable from any non-terminal phase; Drafting re-entry from
// Finalizing covers the advance to the next story.
func (p Phase) CanTransition(next Phase) bool {
	if p.Terminal() {
		return false
	}
	if next == PhaseAborted {
		return true
	}
	switch p {
	case PhasePlanning:
		return next == PhaseOutlining
	case PhaseOutlining:
		return next == PhaseDrafting
	case PhaseDrafting:
		// Drafting -> Drafting skips a failed story; -> Done when the failed
		// story was the last one.
		return next == PhaseEditing || next == PhaseDrafting || next == PhaseDone
	case PhaseEditing:
		return next == PhaseFinalizing || next == PhaseDrafting || next == PhaseDone
	case PhaseFinalizing:
		return next == PhaseDrafting || next == PhaseDone
	default:
		return false
	}
}
