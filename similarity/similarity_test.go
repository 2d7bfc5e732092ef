package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigram_Identical(t *testing.T) {
	text := "the lighthouse keeper watched the storm roll in from the north"
	assert.Equal(t, 1.0, Trigram(text, text))
}

func TestTrigram_CaseInsensitive(t *testing.T) {
	a := "The Keeper Watched The Storm"
	b := "the keeper watched the storm"
	assert.Equal(t, 1.0, Trigram(a, b))
}

func TestTrigram_Disjoint(t *testing.T) {
	a := "a quiet village wakes before dawn every single day"
	b := "chrome towers hum beneath three orbiting moons tonight forever"
	assert.Equal(t, 0.0, Trigram(a, b))
}

func TestTrigram_PartialOverlap(t *testing.T) {
	a := "the keeper watched the storm roll in"
	b := "the keeper watched the tide roll out"
	s := Trigram(a, b)
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 1.0)
}

func TestTrigram_ShortTexts(t *testing.T) {
	// Under three words falls back to word sets.
	assert.Equal(t, 1.0, Trigram("hello there", "there hello"))
	assert.Equal(t, 0.0, Trigram("hello", "goodbye"))
	assert.Equal(t, 1.0, Trigram("", ""))
	assert.Equal(t, 0.0, Trigram("", "something"))
}

func TestMaxAgainst(t *testing.T) {
	refs := []string{
		"chrome towers hum beneath three orbiting moons tonight",
		"the keeper watched the storm roll in from the north",
	}
	score, idx := MaxAgainst("the keeper watched the storm roll in from the sea", refs)
	assert.Equal(t, 1, idx)
	assert.Greater(t, score, 0.5)

	score, idx = MaxAgainst("anything", nil)
	assert.Equal(t, -1, idx)
	assert.Equal(t, 0.0, score)
}
