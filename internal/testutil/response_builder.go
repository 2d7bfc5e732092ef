package testutil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/storymesh/model"
)

// ArcResponse wraps a premise summary in the planner's response format.
func ArcResponse(summary string) string {
	return "STORY_ARC:\n" + summary
}

// WorldResponse renders world facts in the world builder's response format,
// with keys emitted in sorted order for determinism.
func WorldResponse(facts map[string]string) string {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("WORLD_ELEMENTS:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "[%s]:\n%s\n", k, facts[k])
	}
	return b.String()
}

// OutlineResponse renders a complete, parseable outline for n stories. Each
// section carries a unique title, three key events, a setting and a tone.
func OutlineResponse(n int) string {
	var b strings.Builder
	b.WriteString("OUTLINE:\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "Story %d: The Journey Part %d\n", i, i)
		b.WriteString("Key Events:\n")
		for j := 1; j <= 3; j++ {
			fmt.Fprintf(&b, "- Event %d of story %d unfolds\n", j, i)
		}
		fmt.Fprintf(&b, "Setting: Region %d of the frontier\n", i)
		fmt.Fprintf(&b, "Tone: Reflective variant %d\n", i)
	}
	b.WriteString("END OF OUTLINE\n")
	return b.String()
}

// MemoryResponse renders events in the memory keeper's response format.
func MemoryResponse(events ...string) string {
	var b strings.Builder
	b.WriteString("MEMORY UPDATE:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "EVENT: %s\n", ev)
	}
	return b.String()
}

// DraftResponse wraps prose in the writer's first-pass response format.
func DraftResponse(prose string) string {
	return "SCENE:\n" + prose
}

// FeedbackResponse wraps notes in the editor's response format.
func FeedbackResponse(notes string) string {
	return "FEEDBACK: " + notes
}

// FinalResponse wraps prose in the writer's revision response format.
func FinalResponse(prose string) string {
	return "SCENE FINAL:\n" + prose
}

// Prose generates deterministic filler text of the given word count. Words
// are derived from the seed so prose from different seeds shares no word
// trigrams, keeping similarity checks quiet in pipeline tests.
func Prose(seed string, words int) string {
	parts := make([]string, words)
	for i := 0; i < words; i++ {
		parts[i] = fmt.Sprintf("%s%04d", seed, i)
	}
	return strings.Join(parts, " ")
}

// ScriptRun enqueues a full happy-path run on the mock: planner, world
// builder and outliner responses followed by the four per-story turns for
// each of the n stories. Story prose is minWords long and distinct per
// story.
func ScriptRun(m *model.MockModel, n, minWords int) {
	m.Enqueue(
		ArcResponse("A drifter crosses a changing frontier."),
		WorldResponse(map[string]string{
			"frontier": "a belt of settlements past the old border",
			"drifter":  "a quiet traveler with a long memory",
		}),
		OutlineResponse(n),
	)
	for i := 1; i <= n; i++ {
		seed := fmt.Sprintf("tale%d word", i)
		m.Enqueue(
			MemoryResponse(fmt.Sprintf("Story %d begins", i)),
			DraftResponse(Prose(seed+"draft", 40)),
			FeedbackResponse("Tighten the middle section."),
			FinalResponse(Prose(seed, minWords)),
		)
	}
}
