package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/storymesh/core"
)

// Task builders render the per-phase user messages handed to the adapters.
// The role's format contract lives in its system instructions; tasks carry
// the run-specific material.

func planTask(view core.SessionView) string {
	return fmt.Sprintf(`Create the high-level story arc for a series of %d independent stories
with the following premise:

%s

Identify the major plot points and story beats, and map out how each story
stays unique. Start your output with 'STORY_ARC:'.`, view.StoryCount, view.InitialPrompt)
}

func worldTask(view core.SessionView) string {
	return fmt.Sprintf(`Based on the story arc below, establish every setting and location the
series needs. Start your output with 'WORLD_ELEMENTS:'.

Initial premise:
%s

%s`, view.InitialPrompt, view.StoryArc)
}

func outlineTask(view core.SessionView) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Create the detailed %d-story outline for the series.

Initial premise:
%s

Story arc:
%s`, view.StoryCount, view.InitialPrompt, view.StoryArc)
	if facts := worldFactsBlock(view.WorldFacts); facts != "" {
		b.WriteString("\n\n")
		b.WriteString(facts)
	}
	fmt.Fprintf(&b, `

Number stories sequentially starting with Story 1. Every story needs a clear
beginning, middle and end, at least 3 key events, and must be fully detailed
now - nothing left to be determined later. Output all %d stories.`, view.StoryCount)
	return b.String()
}

func memoryTask(view core.SessionView, index int) string {
	return fmt.Sprintf(`Story %d of %d is about to be drafted. Review the prior story summaries and
the continuity log, then produce the context update for the writing team.
Start with 'MEMORY UPDATE:', list key events with 'EVENT:', world details
with 'WORLD:' and flag problems with 'CONTINUITY ALERT:'.`, index, view.StoryCount)
}

func draftTask(view core.SessionView, o core.StoryOutline) string {
	return fmt.Sprintf(`Write the complete draft for this story only. Mark it with 'SCENE:'.

%s`, o.Prompt())
}

func editTask(o core.StoryOutline, draft string) string {
	return fmt.Sprintf(`Review the draft below against its outline entry. Start your critique with
'FEEDBACK:' and give concrete suggestions with 'SUGGEST:'.

%s

Draft:
%s`, o.Prompt(), draft)
}

func reviseTask(o core.StoryOutline, draft, feedback string) string {
	return fmt.Sprintf(`Revise the draft below into its final version, addressing the editor's
feedback. Output the complete revised story marked with 'SCENE FINAL:'.

%s

Draft:
%s

Editor feedback:
%s`, o.Prompt(), draft, feedback)
}

// worldFactsBlock renders established world facts as a context block.
func worldFactsBlock(facts map[string]string) string {
	if len(facts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	// Stable order for reproducible prompts.
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("Established World Elements:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n- %s: %s", k, facts[k])
	}
	return b.String()
}

var worldHeadingRe = regexp.MustCompile(`(?m)^\[?([^\[\]\n:]+?)\]?:\s*$`)

// parseWorldFacts splits the world builder's output into named facts keyed
// by location heading. Output that carries no headings lands under a single
// "world" fact so nothing is dropped.
func parseWorldFacts(content string) map[string]string {
	heads := worldHeadingRe.FindAllStringSubmatchIndex(content, -1)
	facts := map[string]string{}
	for i, head := range heads {
		end := len(content)
		if i+1 < len(heads) {
			end = heads[i+1][0]
		}
		key := strings.TrimSpace(content[head[2]:head[3]])
		if strings.EqualFold(key, "WORLD_ELEMENTS") {
			continue
		}
		value := strings.TrimSpace(content[head[1]:end])
		if key != "" && value != "" {
			facts[key] = value
		}
	}
	if len(facts) == 0 {
		facts["world"] = strings.TrimSpace(content)
	}
	return facts
}

// parseMemoryUpdate extracts continuity entries (EVENT and CONTINUITY ALERT
// lines) and world facts (WORLD lines) from a memory keeper update. An
// update without tagged lines becomes a single continuity entry.
func parseMemoryUpdate(content string) (entries []string, facts map[string]string) {
	facts = map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		switch {
		case strings.HasPrefix(line, "EVENT:"):
			entries = append(entries, strings.TrimSpace(strings.TrimPrefix(line, "EVENT:")))
		case strings.HasPrefix(line, "CONTINUITY ALERT:"):
			entries = append(entries, line)
		case strings.HasPrefix(line, "WORLD:"):
			rest := strings.TrimSpace(strings.TrimPrefix(line, "WORLD:"))
			if key, value, found := strings.Cut(rest, ":"); found {
				facts[strings.TrimSpace(key)] = strings.TrimSpace(value)
			} else if rest != "" {
				facts[rest] = rest
			}
		}
	}
	if len(entries) == 0 && len(facts) == 0 {
		entries = append(entries, strings.TrimSpace(content))
	}
	return entries, facts
}

// renderOutlineArtifact renders the parsed outline in the on-disk format.
func renderOutlineArtifact(stories []core.StoryOutline) []byte {
	var b strings.Builder
	for _, o := range stories {
		fmt.Fprintf(&b, "Story %d: %s\n", o.Number, o.Title)
		b.WriteString(strings.Repeat("-", 50))
		b.WriteString("\n")
		b.WriteString("Key Events:\n")
		for _, ev := range o.KeyEvents {
			fmt.Fprintf(&b, "- %s\n", ev)
		}
		fmt.Fprintf(&b, "Setting: %s\nTone: %s\n\n", o.Setting, o.Tone)
	}
	return []byte(b.String())
}

// renderStoryArtifact renders a finalized story with explicit opening and
// closing section markers.
func renderStoryArtifact(d *core.StoryDraft) []byte {
	return fmt.Appendf(nil, "Story %d: %s\n\n%s\n\nEND OF STORY\n", d.Index, d.Outline.Title, d.Text())
}
