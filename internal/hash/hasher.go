// Package hash computes the digest set that drives duplicate detection:
// an exact file hash, a content hash over normalized text, a
// similarity-preserving fuzzy hash, and per-page content hashes.
//
// Everything in this package is a pure function of its input. Digests are
// stable across process restarts; canonical ids derived from them are
// reproducible forever.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/openarchive/canon/internal/types"
)

// canonicalIDHexLen is how many hex digits of the content hash form the
// canonical id suffix. 32 digits (128 bits) keeps collision probability
// negligible at archive scale.
const canonicalIDHexLen = 32

// FileHash returns the SHA-256 of the raw bytes, hex encoded.
// Detects byte-identical files regardless of filename or path.
func FileHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// ContentHash returns the SHA-256 of the normalized text, hex encoded.
// Detects identical content across container formats (a PDF text layer
// and a TXT export of the same document hash the same).
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// PageHashes returns the content hash of each page independently,
// enabling partial-overlap detection between documents sharing only some
// pages. Blank pages still get a hash so page indexes stay aligned.
func PageHashes(pages []string) []string {
	if len(pages) == 0 {
		return nil
	}
	hashes := make([]string, len(pages))
	for i, page := range pages {
		hashes[i] = ContentHash(page)
	}
	return hashes
}

// Compute builds the full digest set for one source document
func Compute(doc *types.SourceDocument) (types.DigestSet, error) {
	if len(doc.Raw) == 0 && doc.Text == "" {
		return types.DigestSet{}, &types.ExtractionError{
			Document: doc.Name,
			Err:      fmt.Errorf("document has no bytes and no text"),
		}
	}

	raw := doc.Raw
	if len(raw) == 0 {
		// Text-only delivery: hash the text bytes as the file
		raw = []byte(doc.Text)
	}

	pages := doc.Pages
	if len(pages) == 0 {
		pages = []string{doc.Text}
	}

	return types.DigestSet{
		FileHash:    FileHash(raw),
		ContentHash: ContentHash(doc.Text),
		FuzzyHash:   FuzzyHash(doc.Text),
		PageHashes:  PageHashes(pages),
	}, nil
}

// CanonicalID derives the deterministic canonical id from a content hash.
// Byte-identical normalized content always yields the same id, which is
// the uniqueness anchor for the whole store.
func CanonicalID(contentHash string) string {
	if len(contentHash) > canonicalIDHexLen {
		contentHash = contentHash[:canonicalIDHexLen]
	}
	return "doc-" + contentHash
}
