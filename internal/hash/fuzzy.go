package hash

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fuzzy hashing uses a 64-bit simhash over 3-word shingles of the
// normalized text. Each shingle contributes its xxhash to a 64-lane
// vote; the sign of each lane becomes one bit of the digest. Small edits
// change few shingles, so near-duplicate texts land within a small
// Hamming distance of each other.

const (
	// shingleSize is the number of words per shingle
	shingleSize = 3

	// bucketBits is how many leading bits form the blocking key. Wider
	// keys mean smaller candidate sets but more missed near-duplicates.
	bucketBits = 16
)

// FuzzyHash computes the simhash of the text, hex encoded.
// Deterministic: no seeds, stable across process restarts.
func FuzzyHash(text string) string {
	return fmt.Sprintf("%016x", fuzzyBits(text))
}

func fuzzyBits(text string) uint64 {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return 0
	}

	var votes [64]int

	shingles := len(tokens) - shingleSize + 1
	if shingles < 1 {
		shingles = 1
	}
	for i := 0; i < shingles; i++ {
		end := i + shingleSize
		if end > len(tokens) {
			end = len(tokens)
		}
		h := xxhash.Sum64String(strings.Join(tokens[i:end], " "))
		for bit := 0; bit < 64; bit++ {
			if h&(1<<uint(bit)) != 0 {
				votes[bit]++
			} else {
				votes[bit]--
			}
		}
	}

	var digest uint64
	for bit := 0; bit < 64; bit++ {
		if votes[bit] > 0 {
			digest |= 1 << uint(bit)
		}
	}
	return digest
}

// FuzzySimilarity returns the bitwise similarity of two fuzzy hashes in
// [0,1]: 1.0 for identical digests, 0.5 for unrelated texts on average.
// Returns 0.0 if either hash fails to parse.
func FuzzySimilarity(a, b string) float64 {
	ua, errA := strconv.ParseUint(a, 16, 64)
	ub, errB := strconv.ParseUint(b, 16, 64)
	if errA != nil || errB != nil {
		return 0.0
	}
	distance := bits.OnesCount64(ua ^ ub)
	return 1.0 - float64(distance)/64.0
}

// FuzzyBucket returns the blocking key for a fuzzy hash: its top 16 bits,
// hex encoded. The fuzzy phase only compares documents within one bucket,
// keeping the comparison count near-linear.
func FuzzyBucket(fuzzyHash string) string {
	u, err := strconv.ParseUint(fuzzyHash, 16, 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04x", u>>(64-bucketBits))
}
