package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryDraft_AdvanceHappyPath(t *testing.T) {
	d := &StoryDraft{Index: 1, Status: StatusPlanned}
	require.NoError(t, d.Advance(StatusDrafted))
	require.NoError(t, d.Advance(StatusEdited))
	require.NoError(t, d.Advance(StatusFinalized))
	assert.True(t, d.Status.Terminal())
}

func TestStoryDraft_FinalizeRequiresEdited(t *testing.T) {
	d := &StoryDraft{Index: 1, Status: StatusDrafted}
	err := d.Advance(StatusFinalized)
	assert.Error(t, err)
	assert.Equal(t, StatusDrafted, d.Status)
}

func TestStoryDraft_TerminalRejectsTransitions(t *testing.T) {
	d := &StoryDraft{Index: 2, Status: StatusFailed}
	assert.Error(t, d.Advance(StatusDrafted))

	d = &StoryDraft{Index: 3, Status: StatusEdited}
	require.NoError(t, d.Advance(StatusFinalized))
	assert.Error(t, d.Advance(StatusDrafted))
}

func TestStoryDraft_Text(t *testing.T) {
	d := &StoryDraft{}
	assert.Equal(t, "", d.Text())

	d.Chapters = []string{"one"}
	assert.Equal(t, "one", d.Text())

	d.Chapters = []string{"one", "two"}
	assert.Equal(t, "one\n\ntwo", d.Text())
}

func TestStoryOutline_Prompt(t *testing.T) {
	o := StoryOutline{
		Number:    2,
		Title:     "The Crossing",
		KeyEvents: []string{"a storm hits", "the bridge fails"},
		Setting:   "a river valley",
		Tone:      "tense",
	}
	p := o.Prompt()
	assert.Contains(t, p, "Story 2: The Crossing")
	assert.Contains(t, p, "- a storm hits\n")
	assert.Contains(t, p, "Setting: a river valley")
	assert.Contains(t, p, "Tone: tense")
}
