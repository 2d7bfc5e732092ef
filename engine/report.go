package engine

import "github.com/hupe1980/storymesh/core"

// StoryReport records the terminal outcome of one story.
type StoryReport struct {
	Index  int
	Title  string
	Status core.StoryStatus
	// Reason carries the terminal failure reason for failed stories.
	Reason string
}

// Report summarizes a finished (or aborted) run.
type Report struct {
	SessionID string
	Phase     core.Phase
	Stories   []StoryReport
}

// Finalized returns the indexes of all finalized stories, in order.
func (r *Report) Finalized() []int {
	var out []int
	for _, s := range r.Stories {
		if s.Status == core.StatusFinalized {
			out = append(out, s.Index)
		}
	}
	return out
}

// Failed returns the indexes of all failed stories, in order.
func (r *Report) Failed() []int {
	var out []int
	for _, s := range r.Stories {
		if s.Status == core.StatusFailed {
			out = append(out, s.Index)
		}
	}
	return out
}
