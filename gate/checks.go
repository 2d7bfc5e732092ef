package gate

import (
	"fmt"
	"strings"

	"github.com/hupe1980/storymesh/archive"
	"github.com/hupe1980/storymesh/core"
	"github.com/hupe1980/storymesh/similarity"
)

// Check validates agent output text. A passing result may carry extracted
// content; when chained via All, each check receives the content extracted
// by the previous one.
type Check func(text string) core.ValidationResult

// All chains checks left to right. Extracted content from a passing check
// replaces the text seen by subsequent checks; the first failure wins.
func All(checks ...Check) Check {
	return func(text string) core.ValidationResult {
		current := text
		for _, check := range checks {
			res := check(current)
			if !res.OK {
				return res
			}
			if res.Content != "" {
				current = res.Content
			}
		}
		return core.Pass(current)
	}
}

// NonEmpty fails on blank text.
func NonEmpty() Check {
	return func(text string) core.ValidationResult {
		if strings.TrimSpace(text) == "" {
			return core.Fail(core.ReasonEmpty, "output is empty")
		}
		return core.Pass(strings.TrimSpace(text))
	}
}

// RequireMarkers fails unless every marker occurs in the text.
func RequireMarkers(markers ...string) Check {
	return func(text string) core.ValidationResult {
		for _, m := range markers {
			if !strings.Contains(text, m) {
				return core.Fail(core.ReasonMissingMarker,
					fmt.Sprintf("required marker %q is missing", m))
			}
		}
		return core.Pass(text)
	}
}

// Section extracts the content following start, up to end (or the rest of
// the text when end is empty or absent). Fails when start is missing or the
// section is blank.
func Section(start, end string) Check {
	return func(text string) core.ValidationResult {
		idx := strings.Index(text, start)
		if idx < 0 {
			return core.Fail(core.ReasonMissingMarker,
				fmt.Sprintf("required marker %q is missing", start))
		}
		body := text[idx+len(start):]
		if end != "" {
			if e := strings.Index(body, end); e >= 0 {
				body = body[:e]
			}
		}
		body = strings.TrimSpace(body)
		if body == "" {
			return core.Fail(core.ReasonEmpty,
				fmt.Sprintf("section after %q is empty", start))
		}
		return core.Pass(body)
	}
}

// MinWords fails when the text carries fewer than n words.
func MinWords(n int) Check {
	return func(text string) core.ValidationResult {
		if words := len(strings.Fields(text)); words < n {
			return core.Fail(core.ReasonTooShort,
				fmt.Sprintf("story has %d words, at least %d required", words, n))
		}
		return core.Pass(text)
	}
}

// NotSimilar enforces non-repetition: the text's similarity against every
// archived story must stay below threshold. The failure detail names the
// offending story so the feedback loop can steer the rewrite.
func NotSimilar(arch *archive.Archive, threshold float64) Check {
	return func(text string) core.ValidationResult {
		score, idx := similarity.MaxAgainst(text, arch.Texts())
		if idx >= 0 && score >= threshold {
			entries := arch.Entries()
			return core.Fail(core.ReasonTooSimilar,
				fmt.Sprintf("too similar to finalized story %d (similarity %.2f, threshold %.2f); write something substantially different",
					entries[idx].Index, score, threshold))
		}
		return core.Pass(text)
	}
}

// Parsed runs parse over the text and fails with ReasonMalformed when it
// errors. The parsed value is delivered through the parse closure itself;
// the check passes the original text through.
func Parsed(parse func(text string) error) Check {
	return func(text string) core.ValidationResult {
		if err := parse(text); err != nil {
			return core.Fail(core.ReasonMalformed, err.Error())
		}
		return core.Pass(text)
	}
}
