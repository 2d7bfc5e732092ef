// Package similarity implements the text overlap measure used to enforce
// non-repetition across finalized stories. The measure is Jaccard similarity
// over word trigrams: cheap, deterministic, language agnostic and good at
// catching near-duplicate passages without flagging stories that merely
// share a setting.
package similarity

import "strings"

// Trigram returns the Jaccard similarity of the word-trigram sets of a and b
// in [0,1]. Texts shorter than three words fall back to word-set overlap so
// degenerate inputs still compare sensibly. Comparison is case-insensitive.
func Trigram(a, b string) float64 {
	sa := shingles(a)
	sb := shingles(b)
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for s := range sa {
		if _, ok := sb[s]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

// MaxAgainst returns the highest similarity of text against any of the
// given references, with the index of the best match (-1 when refs is empty).
func MaxAgainst(text string, refs []string) (float64, int) {
	best, bestIdx := 0.0, -1
	for i, ref := range refs {
		if s := Trigram(text, ref); s > best || bestIdx == -1 {
			best, bestIdx = s, i
		}
	}
	return best, bestIdx
}

func shingles(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{})
	if len(words) < 3 {
		for _, w := range words {
			set[w] = struct{}{}
		}
		return set
	}
	for i := 0; i+3 <= len(words); i++ {
		set[words[i]+" "+words[i+1]+" "+words[i+2]] = struct{}{}
	}
	return set
}
