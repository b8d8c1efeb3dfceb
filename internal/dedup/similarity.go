package dedup

import (
	"strings"

	"github.com/openarchive/canon/internal/hash"
)

// TextSimilarity returns the Jaccard similarity of the 3-word shingle
// sets of two texts, in [0,1]. It is the corroborating signal for the
// fuzzy phase: independent of the fuzzy hash, so a hash-bucket collision
// cannot produce a merge on its own.
func TextSimilarity(a, b string) float64 {
	setA := shingleSet(a)
	setB := shingleSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func shingleSet(text string) map[string]struct{} {
	tokens := hash.Tokens(text)
	const n = 3
	set := make(map[string]struct{})
	if len(tokens) == 0 {
		return set
	}
	if len(tokens) < n {
		set[strings.Join(tokens, " ")] = struct{}{}
		return set
	}
	for i := 0; i+n <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return set
}
