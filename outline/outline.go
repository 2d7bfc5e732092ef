// Package outline parses the outline creator's raw output into structured
// per-story entries. The expected shape is the strict format the outline
// creator is instructed to emit: an OUTLINE: header, one "Story N: Title"
// section per story with Key Events / Setting / Tone fields, and an
// END OF OUTLINE trailer.
package outline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/storymesh/core"
)

const (
	// StartMarker opens the outline block in the raw agent output.
	StartMarker = "OUTLINE:"
	// EndMarker closes the outline block.
	EndMarker = "END OF OUTLINE"
)

var (
	storyHeadRe = regexp.MustCompile(`(?m)^\s*\*{0,2}Story\s+(\d+):\s*(.*?)\*{0,2}\s*$`)
	eventRe     = regexp.MustCompile(`(?m)^\s*-\s*(.+?)\s*$`)
	settingRe   = regexp.MustCompile(`(?is)\*{0,2}Setting:\*{0,2}\s*(.*?)(?:\n\s*\*{0,2}Tone:|\z)`)
	toneRe      = regexp.MustCompile(`(?is)\*{0,2}Tone:\*{0,2}\s*(.*?)\z`)
	eventsRe    = regexp.MustCompile(`(?is)\*{0,2}Key Events:\*{0,2}\s*(.*?)(?:\n\s*\*{0,2}Setting:|\z)`)
	titleRe     = regexp.MustCompile(`(?im)^\s*\*{0,2}(?:Story )?Title:\*{0,2}\s*(.+?)\s*$`)
)

// Extract isolates the outline block from raw agent output. It returns the
// text between StartMarker and EndMarker; a missing end marker takes
// everything after the start marker, and a missing start marker falls back
// to scanning from the first story heading.
func Extract(raw string) (string, error) {
	if idx := strings.Index(raw, StartMarker); idx >= 0 {
		body := raw[idx+len(StartMarker):]
		if end := strings.Index(body, EndMarker); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body), nil
	}
	if loc := storyHeadRe.FindStringIndex(raw); loc != nil {
		return strings.TrimSpace(raw[loc[0]:]), nil
	}
	return "", fmt.Errorf("no %q marker or story heading found", StartMarker)
}

// Parse extracts the outline block and splits it into structured entries.
// Sections missing a required field or carrying fewer than three key events
// are dropped; the survivors are renumbered sequentially from 1. An error is
// returned when fewer than want valid stories survive (want <= 0 disables
// the count check).
func Parse(raw string, want int) ([]core.StoryOutline, error) {
	body, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	heads := storyHeadRe.FindAllStringSubmatchIndex(body, -1)
	if len(heads) == 0 {
		return nil, fmt.Errorf("outline contains no story sections")
	}

	var stories []core.StoryOutline
	for i, head := range heads {
		sectionEnd := len(body)
		if i+1 < len(heads) {
			sectionEnd = heads[i+1][0]
		}
		section := body[head[1]:sectionEnd]
		number := atoi(body[head[2]:head[3]])
		title := strings.TrimSpace(body[head[4]:head[5]])

		entry, err := parseSection(number, title, section)
		if err != nil {
			continue
		}
		stories = append(stories, entry)
	}

	if len(stories) == 0 {
		return nil, fmt.Errorf("no valid story sections in outline")
	}
	if want > 0 && len(stories) < want {
		return nil, fmt.Errorf("only %d valid stories parsed, %d required", len(stories), want)
	}

	renumber(stories)
	if want > 0 && len(stories) > want {
		stories = stories[:want]
	}
	return stories, nil
}

func parseSection(number int, title, section string) (core.StoryOutline, error) {
	var missing []string

	// A "Title:" field overrides the heading title when present.
	if m := titleRe.FindStringSubmatch(section); m != nil {
		title = strings.TrimSpace(m[1])
	}
	if title == "" {
		missing = append(missing, "Title")
	}

	var events []string
	if m := eventsRe.FindStringSubmatch(section); m != nil {
		for _, ev := range eventRe.FindAllStringSubmatch(m[1], -1) {
			events = append(events, strings.TrimSpace(ev[1]))
		}
	}
	if len(events) < 3 {
		missing = append(missing, "Key Events")
	}

	setting := ""
	if m := settingRe.FindStringSubmatch(section); m != nil {
		setting = strings.TrimSpace(m[1])
	}
	if setting == "" {
		missing = append(missing, "Setting")
	}

	tone := ""
	if m := toneRe.FindStringSubmatch(section); m != nil {
		tone = strings.TrimSpace(m[1])
	}
	if tone == "" {
		missing = append(missing, "Tone")
	}

	if len(missing) > 0 {
		return core.StoryOutline{}, fmt.Errorf("story %d missing: %s", number, strings.Join(missing, ", "))
	}

	return core.StoryOutline{
		Number:    number,
		Title:     title,
		KeyEvents: events,
		Setting:   setting,
		Tone:      tone,
	}, nil
}

// renumber sorts stories by their declared number and renumbers them
// sequentially from 1 so gaps left by dropped sections disappear.
func renumber(stories []core.StoryOutline) {
	sort.Slice(stories, func(i, j int) bool { return stories[i].Number < stories[j].Number })
	for i := range stories {
		stories[i].Number = i + 1
	}
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
