package dedup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openarchive/canon/internal/hash"
	"github.com/openarchive/canon/internal/types"
)

// CorpusIndex is the view of the canonical store the matcher needs.
// The sqlite store satisfies it; tests satisfy it with an in-memory map.
type CorpusIndex interface {
	// FindByDigest returns the canonical id owning any source record with
	// the given file or content hash, or "" when none exists
	FindByDigest(ctx context.Context, digest string) (string, error)

	// FindByFuzzyBucket returns the canonical documents whose fuzzy hash
	// falls in the given blocking bucket
	FindByFuzzyBucket(ctx context.Context, bucket string) ([]types.FuzzyCandidate, error)

	// FindByMetadataKey returns the canonical id holding a source with the
	// given metadata comparison key, or "" when none exists
	FindByMetadataKey(ctx context.Context, key string) (string, error)

	// FindByPageHash returns the canonical documents containing the given
	// page hash
	FindByPageHash(ctx context.Context, pageHash string) ([]types.PageHashHit, error)
}

// Decision is the outcome of matching one document against the corpus
type Decision struct {
	// Matched is true when a canonical group was found to merge into
	Matched bool `json:"matched"`

	// CanonicalID is the group to merge into; only set when Matched
	CanonicalID string `json:"canonical_id,omitempty"`

	// Method is the detection phase that produced the match
	Method types.MatchMethod `json:"method,omitempty"`

	// Confidence is the match confidence in [0,1]
	Confidence float64 `json:"confidence"`

	// ComparedCount is how many existing documents were compared
	ComparedCount int `json:"compared_count"`

	// Degraded is true when the fuzzy phase was skipped (candidate cap or
	// time budget exceeded) and only exact+metadata ran
	Degraded bool `json:"degraded,omitempty"`

	// Review is set when the document matched two distinct canonical
	// groups under different phases. The higher-confidence phase won;
	// the conflict is preserved here for manual reconciliation.
	Review *types.AmbiguousMatchError `json:"-"`

	// Overlaps are partial-overlap relations to record. Populated only
	// when no full match was found but page hashes are shared.
	Overlaps []OverlapHit `json:"overlaps,omitempty"`
}

// Validate checks if the decision has valid values
func (d *Decision) Validate() error {
	if d.Confidence < 0.0 || d.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", d.Confidence)
	}
	if d.Matched && d.CanonicalID == "" {
		return fmt.Errorf("canonical_id must be set when matched is true")
	}
	if !d.Matched && d.CanonicalID != "" {
		return fmt.Errorf("canonical_id should not be set when matched is false")
	}
	if d.Matched && !d.Method.IsValid() {
		return fmt.Errorf("invalid match method: %s", d.Method)
	}
	if d.ComparedCount < 0 {
		return fmt.Errorf("compared_count cannot be negative (got %d)", d.ComparedCount)
	}
	return nil
}

// OverlapHit is a partial overlap found during phase 4: the other
// document's canonical id and the page indexes shared on each side
type OverlapHit struct {
	CanonicalID string `json:"canonical_id"`

	// LocalPages are the 0-based page indexes of the incoming document
	// that matched
	LocalPages []int `json:"local_pages"`

	// RemotePages are the matching page indexes within the existing
	// document
	RemotePages []int `json:"remote_pages"`
}

// Matcher runs the four detection phases against the existing corpus,
// in confidence order: exact, fuzzy, metadata, partial overlap. The
// first phase that yields a confident match wins; phase 4 never merges,
// it only records relations between distinct canonical documents.
type Matcher struct {
	index CorpusIndex
	cfg   Config
}

// NewMatcher creates a matcher over the given corpus index
func NewMatcher(index CorpusIndex, cfg Config) (*Matcher, error) {
	if index == nil {
		return nil, fmt.Errorf("corpus index is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Matcher{index: index, cfg: cfg}, nil
}

// Match runs the detection phases for one document. The returned decision
// is never nil on a nil error.
//
// Ambiguity: when the exact or fuzzy phase matches one canonical group and
// the metadata phase points at a different one, the higher-confidence
// phase wins, the decision carries the conflict in Review, and the two
// pre-existing groups are never merged.
func (m *Matcher) Match(ctx context.Context, doc *types.SourceDocument, digests types.DigestSet) (*Decision, error) {
	decision := &Decision{}

	// Phase 1: exact. File hash first (byte-identical copies), then
	// content hash (identical content in different containers).
	for _, digest := range []string{digests.FileHash, digests.ContentHash} {
		id, err := m.index.FindByDigest(ctx, digest)
		if err != nil {
			return nil, fmt.Errorf("exact lookup failed: %w", err)
		}
		decision.ComparedCount++
		if id != "" {
			decision.Matched = true
			decision.CanonicalID = id
			decision.Method = types.MatchExact
			decision.Confidence = 1.0
			m.checkMetadataConflict(ctx, doc, decision)
			return decision, nil
		}
	}

	// Phase 2: fuzzy, bounded by bucket blocking, a candidate cap and a
	// time budget. Degrades to exact+metadata rather than stalling.
	fuzzyDone, err := m.matchFuzzy(ctx, doc, digests, decision)
	if err != nil {
		return nil, err
	}
	if fuzzyDone {
		m.checkMetadataConflict(ctx, doc, decision)
		return decision, nil
	}

	// Phase 3: metadata, for structured document types only
	if id, confidence := m.matchMetadata(ctx, doc, decision); id != "" {
		decision.Matched = true
		decision.CanonicalID = id
		decision.Method = types.MatchMetadata
		decision.Confidence = confidence
		return decision, nil
	}

	// Phase 4: partial overlap. Shared pages without a full match relate
	// two distinct canonical documents; they are never merged.
	if err := m.findOverlaps(ctx, digests, decision); err != nil {
		return nil, err
	}

	return decision, nil
}

// matchFuzzy runs phase 2. Returns true when a corroborated match was
// found and written into the decision.
func (m *Matcher) matchFuzzy(ctx context.Context, doc *types.SourceDocument, digests types.DigestSet, decision *Decision) (bool, error) {
	bucket := hash.FuzzyBucket(digests.FuzzyHash)
	if bucket == "" {
		return false, nil
	}

	deadline := time.Now().Add(m.cfg.FuzzyBudget)
	budgetCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	candidates, err := m.index.FindByFuzzyBucket(budgetCtx, bucket)
	if err != nil {
		if budgetCtx.Err() != nil && ctx.Err() == nil {
			decision.Degraded = true
			return false, nil
		}
		return false, fmt.Errorf("fuzzy bucket lookup failed: %w", err)
	}

	if len(candidates) > m.cfg.MaxFuzzyCandidates {
		// Corpus too dense in this bucket for the comparison budget
		decision.Degraded = true
		return false, nil
	}

	normalized := hash.Normalize(doc.Text)

	bestID := ""
	bestConfidence := 0.0
	for _, cand := range candidates {
		if budgetCtx.Err() != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			decision.Degraded = true
			return false, nil
		}
		decision.ComparedCount++

		fuzzySim := hash.FuzzySimilarity(digests.FuzzyHash, cand.FuzzyHash)
		if fuzzySim < m.cfg.FuzzyThreshold {
			continue
		}

		// Two-signal corroboration: the fuzzy hash alone never merges
		textSim := TextSimilarity(normalized, cand.NormalizedText)
		if textSim < m.cfg.TextThreshold {
			continue
		}

		confidence := (fuzzySim + textSim) / 2.0
		if confidence > bestConfidence {
			bestConfidence = confidence
			bestID = cand.CanonicalID
		}
	}

	if bestID == "" {
		return false, nil
	}
	decision.Matched = true
	decision.CanonicalID = bestID
	decision.Method = types.MatchFuzzy
	decision.Confidence = bestConfidence
	return true, nil
}

// matchMetadata runs phase 3. Returns the matched canonical id and the
// completeness-scaled confidence, or "" when no confident match exists.
func (m *Matcher) matchMetadata(ctx context.Context, doc *types.SourceDocument, decision *Decision) (string, float64) {
	if doc.Metadata == nil {
		return "", 0.0
	}
	key := doc.Metadata.ComparisonKey()
	id, err := m.index.FindByMetadataKey(ctx, key)
	if err != nil || id == "" {
		return "", 0.0
	}
	decision.ComparedCount++

	// An exact key match on a fully populated tuple is near-certain;
	// missing fields proportionally weaken it
	confidence := types.MatchMetadata.Confidence() * doc.Metadata.Completeness()
	if doc.Metadata.Completeness() >= 1.0 {
		confidence = 0.98
	}
	if confidence < m.cfg.MetadataThreshold {
		return "", 0.0
	}
	return id, confidence
}

// checkMetadataConflict probes the metadata phase after a higher-confidence
// match, solely to surface ambiguity. The original match stands.
func (m *Matcher) checkMetadataConflict(ctx context.Context, doc *types.SourceDocument, decision *Decision) {
	if doc.Metadata == nil || !decision.Matched {
		return
	}
	probe := &Decision{}
	id, _ := m.matchMetadata(ctx, doc, probe)
	decision.ComparedCount += probe.ComparedCount
	if id == "" || id == decision.CanonicalID {
		return
	}
	decision.Review = &types.AmbiguousMatchError{
		Document:     doc.Name,
		Winner:       decision.CanonicalID,
		WinnerMethod: decision.Method,
		Loser:        id,
		LoserMethod:  types.MatchMetadata,
	}
}

// blankPageHash is the content hash every blank or whitespace-only page
// normalizes to. Blank pages keep page indexes aligned in the digest set,
// but a shared blank page says nothing about two documents being related.
var blankPageHash = hash.ContentHash("")

// findOverlaps runs phase 4: collect canonical documents sharing page
// hashes and group the shared page indexes per document
func (m *Matcher) findOverlaps(ctx context.Context, digests types.DigestSet, decision *Decision) error {
	type overlapAccum struct {
		local  []int
		remote []int
	}
	accum := make(map[string]*overlapAccum)

	for localIdx, pageHash := range digests.PageHashes {
		if pageHash == blankPageHash {
			continue
		}
		hits, err := m.index.FindByPageHash(ctx, pageHash)
		if err != nil {
			return fmt.Errorf("page hash lookup failed: %w", err)
		}
		for _, hit := range hits {
			a, ok := accum[hit.CanonicalID]
			if !ok {
				a = &overlapAccum{}
				accum[hit.CanonicalID] = a
			}
			a.local = append(a.local, localIdx)
			a.remote = append(a.remote, hit.PageIndex)
		}
	}

	for id, a := range accum {
		if len(a.local) < m.cfg.MinOverlapPages {
			continue
		}
		decision.Overlaps = append(decision.Overlaps, OverlapHit{
			CanonicalID: id,
			LocalPages:  a.local,
			RemotePages: a.remote,
		})
	}
	// Stable output regardless of map iteration order
	sort.Slice(decision.Overlaps, func(i, j int) bool {
		return decision.Overlaps[i].CanonicalID < decision.Overlaps[j].CanonicalID
	})
	return nil
}
