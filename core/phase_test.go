package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase_Transitions(t *testing.T) {
	cases := []struct {
		from, to Phase
		ok       bool
	}{
		{PhasePlanning, PhaseOutlining, true},
		{PhasePlanning, PhaseDrafting, false},
		{PhaseOutlining, PhaseDrafting, true},
		{PhaseOutlining, PhaseEditing, false},
		{PhaseDrafting, PhaseEditing, true},
		{PhaseDrafting, PhaseDrafting, true},
		{PhaseDrafting, PhaseDone, true},
		{PhaseEditing, PhaseFinalizing, true},
		{PhaseEditing, PhaseDrafting, true},
		{PhaseEditing, PhaseDone, true},
		{PhaseFinalizing, PhaseDrafting, true},
		{PhaseFinalizing, PhaseDone, true},
		{PhaseFinalizing, PhaseEditing, false},
		{PhaseDone, PhaseDrafting, false},
		{PhaseDone, PhaseAborted, false},
		{PhaseAborted, PhaseDrafting, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPhase_AbortedReachableFromAnyNonTerminal(t *testing.T) {
	for _, p := range []Phase{PhasePlanning, PhaseOutlining, PhaseDrafting, PhaseEditing, PhaseFinalizing} {
		assert.True(t, p.CanTransition(PhaseAborted), "%s -> aborted", p)
	}
}

func TestPhase_Terminal(t *testing.T) {
	assert.True(t, PhaseDone.Terminal())
	assert.True(t, PhaseAborted.Terminal())
	assert.False(t, PhaseDrafting.Terminal())
}
