package hash

import (
	"errors"
	"strings"
	"testing"

	"github.com/openarchive/canon/internal/types"
)

// TestNormalize tests text canonicalization ahead of content hashing
func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty text",
			input:    "",
			expected: "",
		},
		{
			name:     "lowercases",
			input:    "The QUICK Brown Fox",
			expected: "the quick brown fox",
		},
		{
			name:     "collapses whitespace",
			input:    "one\t\ttwo\n\n  three",
			expected: "one two three",
		},
		{
			name:     "strips replacement chars",
			input:    "depo�sition",
			expected: "deposition",
		},
		{
			name:     "rejoins hyphen line breaks",
			input:    "the deposi-\ntion continued",
			expected: "the deposition continued",
		},
		{
			name:     "keeps in-word hyphens",
			input:    "cross-examination",
			expected: "cross-examination",
		},
		{
			name:     "keeps spaced hyphens",
			input:    "pages 1 - 10 of the record",
			expected: "pages 1 - 10 of the record",
		},
		{
			name:     "hyphen before space is not a word split",
			input:    "exhibit a- filed late",
			expected: "exhibit a- filed late",
		},
		{
			name:     "keeps trailing hyphen",
			input:    "see exhibit B-",
			expected: "see exhibit b-",
		},
		{
			name:     "rejoins carriage-return line breaks",
			input:    "deposi-\r\ntion",
			expected: "deposition",
		},
		{
			name:     "trims edges",
			input:    "  body text  ",
			expected: "body text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestContentHashStability verifies the content hash is a pure function of
// normalized content
func TestContentHashStability(t *testing.T) {
	a := ContentHash("The Quick Brown Fox")
	b := ContentHash("the   quick\nbrown fox")
	if a != b {
		t.Errorf("differently formatted copies of the same content hashed differently: %s vs %s", a, b)
	}

	c := ContentHash("an entirely different document")
	if a == c {
		t.Error("different content produced the same content hash")
	}

	// Re-hashing must be deterministic across calls
	if ContentHash("The Quick Brown Fox") != a {
		t.Error("content hash is not stable across calls")
	}
}

func TestFileHash(t *testing.T) {
	raw := []byte("raw pdf bytes")
	if FileHash(raw) != FileHash([]byte("raw pdf bytes")) {
		t.Error("file hash not deterministic")
	}
	if FileHash(raw) == FileHash([]byte("other bytes")) {
		t.Error("different bytes produced the same file hash")
	}
	if len(FileHash(raw)) != 64 {
		t.Errorf("expected 64 hex digits, got %d", len(FileHash(raw)))
	}
}

// longProse is a varied ~100-word passage used for fuzzy hashing tests;
// repetition keeps per-shingle vote margins wide so single-word noise
// stays within a small Hamming distance
var longProse = strings.Repeat("the committee convened on tuesday morning to review the quarterly "+
	"filings submitted by the regional offices and to approve the pending motions "+
	"carried over from the previous session members discussed the disposition of "+
	"estate records transferred from the county clerk along with correspondence "+
	"received from counsel regarding the outstanding subpoenas the chair noted "+
	"that several exhibits remained under seal pending review by the court and "+
	"directed staff to prepare a summary of the testimony for inclusion in the "+
	"annual report before the recess the members voted to continue the hearing "+
	"into the following week and adjourned ", 3)

// TestFuzzySimilarity verifies the simhash preserves similarity: small
// edits stay close, unrelated text does not
func TestFuzzySimilarity(t *testing.T) {
	// Light OCR noise: one corrupted word occurrence
	noisy := strings.Replace(longProse, "committee", "comm1ttee", 1)

	hBase := FuzzyHash(longProse)
	hNoisy := FuzzyHash(noisy)

	if sim := FuzzySimilarity(hBase, hNoisy); sim < 0.85 {
		t.Errorf("near-duplicate text scored %.3f, want >= 0.85", sim)
	}

	other := strings.Repeat("completely unrelated subject matter about maritime shipping routes and cargo manifests from the pacific ", 20)
	hOther := FuzzyHash(other)

	if sim := FuzzySimilarity(hBase, hOther); sim > 0.80 {
		t.Errorf("unrelated text scored %.3f, want well below the merge threshold", sim)
	}

	if FuzzySimilarity(hBase, hBase) != 1.0 {
		t.Error("identical hashes must score 1.0")
	}
}

func TestFuzzySimilarityBadInput(t *testing.T) {
	if FuzzySimilarity("not-hex", "0000000000000000") != 0.0 {
		t.Error("unparseable hash should score 0.0")
	}
}

// TestFuzzyBucket verifies near-duplicates share a blocking bucket
func TestFuzzyBucket(t *testing.T) {
	base := strings.Repeat("records of the estate transfer were filed with the county clerk in the spring session ", 20)
	noisy := strings.Replace(base, "county", "c0unty", 1)

	bBase := FuzzyBucket(FuzzyHash(base))
	bNoisy := FuzzyBucket(FuzzyHash(noisy))

	if bBase == "" {
		t.Fatal("bucket must not be empty for a valid hash")
	}
	if bBase != bNoisy {
		t.Errorf("near-duplicates landed in different buckets: %s vs %s", bBase, bNoisy)
	}
	if FuzzyBucket("zzz") != "" {
		t.Error("invalid hash should produce empty bucket")
	}
}

func TestPageHashes(t *testing.T) {
	pages := []string{"page one text", "page two text", "page one text"}
	hashes := PageHashes(pages)

	if len(hashes) != 3 {
		t.Fatalf("expected 3 page hashes, got %d", len(hashes))
	}
	if hashes[0] != hashes[2] {
		t.Error("identical pages must hash identically")
	}
	if hashes[0] == hashes[1] {
		t.Error("different pages must hash differently")
	}
	if PageHashes(nil) != nil {
		t.Error("no pages should produce nil")
	}
}

func TestCanonicalID(t *testing.T) {
	h := ContentHash("some document body")
	id := CanonicalID(h)

	if !strings.HasPrefix(id, "doc-") {
		t.Errorf("canonical id missing prefix: %s", id)
	}
	if len(id) != len("doc-")+32 {
		t.Errorf("canonical id wrong length: %s", id)
	}
	if CanonicalID(h) != id {
		t.Error("canonical id is not deterministic")
	}
	if CanonicalID(ContentHash("other body")) == id {
		t.Error("different content produced the same canonical id")
	}
}

func TestCompute(t *testing.T) {
	doc := &types.SourceDocument{
		Name:  "filing.txt",
		Raw:   []byte("raw bytes of the filing"),
		Text:  "Page one.\fPage two.",
		Pages: []string{"Page one.", "Page two."},
	}

	digests, err := Compute(doc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if err := digests.Validate(); err != nil {
		t.Fatalf("digest set invalid: %v", err)
	}
	if len(digests.PageHashes) != 2 {
		t.Errorf("expected 2 page hashes, got %d", len(digests.PageHashes))
	}

	// Same document delivered again must digest identically
	again, err := Compute(doc)
	if err != nil {
		t.Fatalf("Compute failed on re-run: %v", err)
	}
	if again.FileHash != digests.FileHash || again.ContentHash != digests.ContentHash ||
		again.FuzzyHash != digests.FuzzyHash {
		t.Error("digests are not stable across runs")
	}
}

func TestComputeEmptyDocument(t *testing.T) {
	doc := &types.SourceDocument{Name: "empty.txt"}
	_, err := Compute(doc)
	if err == nil {
		t.Fatal("expected error for document with no bytes and no text")
	}
	var extractionErr *types.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Errorf("expected ExtractionError, got %T", err)
	}
}

func TestComputeTextOnly(t *testing.T) {
	doc := &types.SourceDocument{
		Name: "plain.txt",
		Text: "just extracted text, no raw bytes",
	}
	digests, err := Compute(doc)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(digests.PageHashes) != 1 {
		t.Errorf("unpaginated document should get one page hash, got %d", len(digests.PageHashes))
	}
}
