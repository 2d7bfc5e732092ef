package core

import "fmt"

// StoryStatus tracks the lifecycle of a single story draft.
type StoryStatus int

const (
	// StatusPlanned means the story has an outline entry but no prose yet.
	StatusPlanned StoryStatus = iota
	// StatusDrafted means the writer produced a first complete draft.
	StatusDrafted
	// StatusEdited means the draft passed through editor review and revision.
	StatusEdited
	// StatusFinalized means the story passed validation and was durably
	// written. Finalized stories are immutable.
	StatusFinalized
	// StatusFailed means the story exhausted its retry budget.
	StatusFailed
)

// String returns a stable name for logging.
func (s StoryStatus) String() string {
	switch s {
	case StatusPlanned:
		return "planned"
	case StatusDrafted:
		return "drafted"
	case StatusEdited:
		return "edited"
	case StatusFinalized:
		return "finalized"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether the status admits no further transitions.
func (s StoryStatus) Terminal() bool { return s == StatusFinalized || s == StatusFailed }

// StoryOutline is one parsed entry of the series outline: the planning
// contract the writer and editor work against for a single story.
type StoryOutline struct {
	Number    int
	Title     string
	KeyEvents []string
	Setting   string
	Tone      string
}

// Prompt renders the outline entry as the requirements block handed to the
// drafting agents.
func (o StoryOutline) Prompt() string {
	s := fmt.Sprintf("Story %d: %s\nKey Events:\n", o.Number, o.Title)
	for _, ev := range o.KeyEvents {
		s += "- " + ev + "\n"
	}
	s += "Setting: " + o.Setting + "\nTone: " + o.Tone
	return s
}

// StoryDraft is one in-progress story. It is created when its drafting phase
// starts and reaches a terminal status on Finalized or Failed.
type StoryDraft struct {
	Index    int
	Outline  StoryOutline
	Chapters []string
	Status   StoryStatus
	// FailReason records the terminal reason when Status is StatusFailed.
	FailReason string
}

// Text joins the draft chapters into the full story text.
func (d *StoryDraft) Text() string {
	switch len(d.Chapters) {
	case 0:
		return ""
	case 1:
		return d.Chapters[0]
	}
	out := d.Chapters[0]
	for _, c := range d.Chapters[1:] {
		out += "\n\n" + c
	}
	return out
}

// Advance moves the draft to the given status. Transitions out of a terminal
// status are rejected, as is any transition to Finalized from a status other
// than Edited: a draft must pass through editing (and therefore validation)
// before it can be finalized.
func (d *StoryDraft) Advance(next StoryStatus) error {
	if d.Status.Terminal() {
		return fmt.Errorf("story %d is %s, cannot move to %s", d.Index, d.Status, next)
	}
	if next == StatusFinalized && d.Status != StatusEdited {
		return fmt.Errorf("story %d must be edited before finalizing, is %s", d.Index, d.Status)
	}
	d.Status = next
	return nil
}
