package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_RejectsBadStoryCount(t *testing.T) {
	_, err := NewSession("s1", "a premise", 0)
	assert.Error(t, err)

	sess, err := NewSession("s1", "a premise", 3)
	require.NoError(t, err)
	assert.Equal(t, PhasePlanning, sess.Phase())
	assert.Equal(t, 1, sess.StoryIndex())
}

func TestSession_SetPhaseEnforcesTransitions(t *testing.T) {
	sess, err := NewSession("s1", "p", 1)
	require.NoError(t, err)

	assert.Error(t, sess.SetPhase(PhaseDrafting))
	require.NoError(t, sess.SetPhase(PhaseOutlining))
	require.NoError(t, sess.SetPhase(PhaseDrafting))
	require.NoError(t, sess.SetPhase(PhaseAborted))

	// Terminal: nothing moves out.
	assert.Error(t, sess.SetPhase(PhaseDrafting))
	assert.Equal(t, PhaseAborted, sess.Phase())
}

func TestSession_AdvanceStoryNeverDecreases(t *testing.T) {
	sess, err := NewSession("s1", "p", 3)
	require.NoError(t, err)

	require.NoError(t, sess.AdvanceStory(2))
	assert.Error(t, sess.AdvanceStory(1))
	assert.Equal(t, 2, sess.StoryIndex())
}

func TestSession_SnapshotIsolation(t *testing.T) {
	sess, err := NewSession("s1", "p", 2)
	require.NoError(t, err)
	sess.SetWorldFact("city", "built on stilts")
	sess.AppendContinuity("the flood began")

	view := sess.Snapshot()
	view.WorldFacts["city"] = "mutated"
	view.Continuity[0] = "mutated"

	fresh := sess.Snapshot()
	assert.Equal(t, "built on stilts", fresh.WorldFacts["city"])
	assert.Equal(t, "the flood began", fresh.Continuity[0])
}

func TestSession_WorldFactOverwrite(t *testing.T) {
	sess, err := NewSession("s1", "p", 1)
	require.NoError(t, err)

	sess.SetWorldFact("era", "early settlement")
	sess.SetWorldFact("era", "late settlement")
	assert.Equal(t, "late settlement", sess.Snapshot().WorldFacts["era"])
}

func TestSessionView_OutlineContext(t *testing.T) {
	sess, err := NewSession("s1", "p", 1)
	require.NoError(t, err)
	assert.Equal(t, "", sess.Snapshot().OutlineContext())

	sess.SetOutline("raw", []StoryOutline{
		{Number: 1, Title: "One", KeyEvents: []string{"a", "b", "c"}, Setting: "s", Tone: "t"},
	})
	ctx := sess.Snapshot().OutlineContext()
	assert.Contains(t, ctx, "Complete Series Outline:")
	assert.Contains(t, ctx, "Story 1: One")
}
