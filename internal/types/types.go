package types

import (
	"fmt"
	"time"
)

// SourceDocument is one copy of a document as delivered by the extraction
// tooling: raw bytes plus extracted text plus the provenance of the copy.
// It is an ephemeral pipeline input and is never persisted as-is; the
// durable representation is a SourceRecord under a CanonicalDocument.
type SourceDocument struct {
	// Name identifies the document within its batch (usually the filename)
	Name string `json:"name"`

	// Raw is the original file bytes as downloaded
	Raw []byte `json:"-"`

	// Text is the extracted full text, pages joined by form feeds
	Text string `json:"text"`

	// Pages holds the per-page extracted text. For single-page or
	// unpaginated documents this has exactly one entry (the full text).
	Pages []string `json:"pages,omitempty"`

	// SourceName is the collection operator (e.g. "national-archives")
	SourceName string `json:"source_name"`

	// Collection is the named release within the source
	Collection string `json:"collection"`

	// URL is where this copy was downloaded from
	URL string `json:"url,omitempty"`

	// AuthorityTier ranks the trustworthiness of the source
	AuthorityTier AuthorityTier `json:"authority_tier"`

	// DownloadedAt is when the copy was fetched by the ingestion tooling
	DownloadedAt time.Time `json:"downloaded_at"`

	// Metadata holds structured fields for metadata-phase matching.
	// Nil for unstructured documents.
	Metadata DocumentMetadata `json:"metadata,omitempty"`
}

// Validate checks if the source document has valid field values
func (d *SourceDocument) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.SourceName == "" {
		return fmt.Errorf("source_name is required")
	}
	if !d.AuthorityTier.IsValid() {
		return fmt.Errorf("invalid authority tier: %s", d.AuthorityTier)
	}
	return nil
}

// DocumentType returns the structured type of the document, or TypeGeneric
// when no structured metadata is attached.
func (d *SourceDocument) DocumentType() DocumentType {
	if d.Metadata == nil {
		return TypeGeneric
	}
	return d.Metadata.DocumentType()
}

// DigestSet holds every digest computed for one source document.
// It is owned by the pipeline run and attached to the document before
// matching; all fields are pure functions of the document content.
type DigestSet struct {
	// FileHash is the SHA-256 of the raw bytes (hex encoded)
	FileHash string `json:"file_hash"`

	// ContentHash is the SHA-256 of the normalized text (hex encoded).
	// Identical content in different container formats hashes the same.
	ContentHash string `json:"content_hash"`

	// FuzzyHash is a similarity-preserving 64-bit digest (hex encoded).
	// Small edits produce a digest within a bounded bit distance.
	FuzzyHash string `json:"fuzzy_hash"`

	// PageHashes are per-page content hashes, in page order
	PageHashes []string `json:"page_hashes,omitempty"`
}

// Validate checks if the digest set is complete
func (s *DigestSet) Validate() error {
	if s.FileHash == "" {
		return fmt.Errorf("file_hash is required")
	}
	if s.ContentHash == "" {
		return fmt.Errorf("content_hash is required")
	}
	if s.FuzzyHash == "" {
		return fmt.Errorf("fuzzy_hash is required")
	}
	return nil
}

// QualityMetrics scores the extracted text of one source copy.
// All scores are in [0,1]; higher is better.
type QualityMetrics struct {
	// WordScore is the fraction of tokens found in the reference dictionary
	WordScore float64 `json:"word_score"`

	// CorruptionScore is 1 minus the fraction of mojibake characters
	CorruptionScore float64 `json:"corruption_score"`

	// LineScore measures line-break consistency against prose structure
	LineScore float64 `json:"line_score"`

	// OverallScore is the fixed weighted combination of the three,
	// clamped to [0,1]
	OverallScore float64 `json:"overall_score"`
}

// QualityCategory buckets an overall score for reporting
type QualityCategory string

const (
	QualityHigh   QualityCategory = "high"   // overall >= 0.90
	QualityMedium QualityCategory = "medium" // overall >= 0.70
	QualityLow    QualityCategory = "low"
)

// Category returns the quality bucket for the overall score
func (m QualityMetrics) Category() QualityCategory {
	switch {
	case m.OverallScore >= 0.90:
		return QualityHigh
	case m.OverallScore >= 0.70:
		return QualityMedium
	default:
		return QualityLow
	}
}

// Validate checks all metric values are in range
func (m QualityMetrics) Validate() error {
	for _, v := range []struct {
		name  string
		score float64
	}{
		{"word_score", m.WordScore},
		{"corruption_score", m.CorruptionScore},
		{"line_score", m.LineScore},
		{"overall_score", m.OverallScore},
	} {
		if v.score < 0.0 || v.score > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0 (got %.4f)", v.name, v.score)
		}
	}
	return nil
}

// AuthorityTier ranks the trustworthiness of a source collection.
// Tiers feed the version selector: court > government > official-release
// > archive > media.
type AuthorityTier string

const (
	TierCourt           AuthorityTier = "court"
	TierGovernment      AuthorityTier = "government"
	TierOfficialRelease AuthorityTier = "official-release"
	TierArchive         AuthorityTier = "archive"
	TierMedia           AuthorityTier = "media"
)

// IsValid checks if the authority tier value is valid
func (t AuthorityTier) IsValid() bool {
	switch t {
	case TierCourt, TierGovernment, TierOfficialRelease, TierArchive, TierMedia:
		return true
	}
	return false
}

// Score maps the tier to the fixed [0,1] scale used by the selector
func (t AuthorityTier) Score() float64 {
	switch t {
	case TierCourt:
		return 1.0
	case TierGovernment:
		return 0.85
	case TierOfficialRelease:
		return 0.70
	case TierArchive:
		return 0.50
	case TierMedia:
		return 0.30
	}
	return 0.0
}

// DocumentType categorizes a document for metadata matching.
// Structured types (email, court filing, financial record) carry typed
// metadata with a comparison key; TypeGeneric documents only match on
// content.
type DocumentType string

const (
	TypeEmail           DocumentType = "email"
	TypeCourtFiling     DocumentType = "court_filing"
	TypeFinancialRecord DocumentType = "financial_record"
	TypeGeneric         DocumentType = "generic"
)

// IsValid checks if the document type value is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case TypeEmail, TypeCourtFiling, TypeFinancialRecord, TypeGeneric:
		return true
	}
	return false
}

// CanonicalDocument is the single deduplicated record representing all
// known copies of one underlying document.
//
// Invariant: ID is a pure function of the normalized content; recomputing
// it for byte-identical content always yields the same id, which is what
// makes UpsertCanonical idempotent.
type CanonicalDocument struct {
	// ID is derived deterministically from the content hash ("doc-" prefix
	// plus the first 32 hex digits of the content hash)
	ID string `json:"canonical_id"`

	DocumentType DocumentType `json:"document_type"`
	Title        string       `json:"title,omitempty"`
	Date         string       `json:"date,omitempty"`

	// ContentHash is the normalized-content hash the ID was derived from
	ContentHash string `json:"content_hash"`

	// PrimarySourceID is the source record currently selected as the best
	// version of this document
	PrimarySourceID string `json:"primary_source_id"`

	// SelectionReason explains why the primary was chosen
	SelectionReason string `json:"selection_reason,omitempty"`

	// DuplicatesFound is the number of merged sources minus one
	DuplicatesFound int `json:"duplicates_found"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the canonical document has valid field values
func (c *CanonicalDocument) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("canonical_id is required")
	}
	if c.ContentHash == "" {
		return fmt.Errorf("content_hash is required")
	}
	if !c.DocumentType.IsValid() {
		return fmt.Errorf("invalid document type: %s", c.DocumentType)
	}
	if c.DuplicatesFound < 0 {
		return fmt.Errorf("duplicates_found cannot be negative (got %d)", c.DuplicatesFound)
	}
	return nil
}

// SourceRecord is the provenance entry linking a canonical document to one
// specific source collection's copy. Every canonical document has at least
// one source record; exactly one is marked primary.
type SourceRecord struct {
	// ID is a stable identifier for this (canonical, source) pair
	ID string `json:"source_id"`

	CanonicalID string `json:"canonical_id"`

	SourceName    string        `json:"source_name"`
	Collection    string        `json:"collection"`
	URL           string        `json:"url,omitempty"`
	AuthorityTier AuthorityTier `json:"authority_tier"`

	Digests DigestSet      `json:"digests"`
	Quality QualityMetrics `json:"quality"`

	// RedactionCompleteness estimates how un-redacted the copy is (1.0 =
	// nothing observably redacted). Scores observable extent only, never
	// legal validity.
	RedactionCompleteness float64 `json:"redaction_completeness"`

	// Completeness estimates how much of the underlying document this copy
	// contains (partial page ranges score below 1.0)
	Completeness float64 `json:"completeness"`

	// FileQuality scores the container itself (resolution, damage)
	FileQuality float64 `json:"file_quality"`

	// Primary marks the currently selected best version
	Primary bool `json:"primary"`

	IngestedAt   time.Time `json:"ingested_at"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Validate checks if the source record has valid field values
func (r *SourceRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("source_id is required")
	}
	if r.CanonicalID == "" {
		return fmt.Errorf("canonical_id is required")
	}
	if r.SourceName == "" {
		return fmt.Errorf("source_name is required")
	}
	if !r.AuthorityTier.IsValid() {
		return fmt.Errorf("invalid authority tier: %s", r.AuthorityTier)
	}
	if err := r.Digests.Validate(); err != nil {
		return fmt.Errorf("invalid digests: %w", err)
	}
	for _, v := range []struct {
		name  string
		score float64
	}{
		{"redaction_completeness", r.RedactionCompleteness},
		{"completeness", r.Completeness},
		{"file_quality", r.FileQuality},
	} {
		if v.score < 0.0 || v.score > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0 (got %.4f)", v.name, v.score)
		}
	}
	return nil
}

// MatchMethod identifies which detection phase justified a merge
type MatchMethod string

const (
	MatchExact    MatchMethod = "exact"
	MatchFuzzy    MatchMethod = "fuzzy"
	MatchMetadata MatchMethod = "metadata"
)

// IsValid checks if the match method value is valid
func (m MatchMethod) IsValid() bool {
	switch m {
	case MatchExact, MatchFuzzy, MatchMetadata:
		return true
	}
	return false
}

// Confidence returns the baseline confidence of the detection phase.
// Exact matches are certain; fuzzy and metadata matches carry the
// confidence computed by the matcher, bounded below by these values.
func (m MatchMethod) Confidence() float64 {
	switch m {
	case MatchExact:
		return 1.0
	case MatchFuzzy:
		return 0.90
	case MatchMetadata:
		return 0.95
	}
	return 0.0
}

// DuplicateGroup is the set of source records merged under one canonical
// document, with the detection methods that justified each merge.
type DuplicateGroup struct {
	CanonicalID string         `json:"canonical_id"`
	SourceIDs   []string       `json:"source_ids"`
	Methods     []MatchMethod  `json:"methods"`
	Sources     []SourceRecord `json:"sources,omitempty"`
}

// PartialOverlap is a relation between two distinct canonical documents
// that share a subset of page hashes. It is never a merge: both documents
// keep their own canonical ids. Overlaps form an explicit edge table
// queried through the store, not back-references inside documents.
type PartialOverlap struct {
	// CanonicalA and CanonicalB are ordered so A < B lexicographically,
	// giving each pair exactly one row
	CanonicalA string `json:"canonical_a"`
	CanonicalB string `json:"canonical_b"`

	// PagesA and PagesB are the overlapping page indexes (0-based) on each
	// side of the relation
	PagesA []int `json:"pages_a"`
	PagesB []int `json:"pages_b"`

	// SharedPages is the number of page hashes the two documents share
	SharedPages int `json:"shared_pages"`

	RecordedAt time.Time `json:"recorded_at"`
}

// Validate checks if the overlap relation has valid field values
func (o *PartialOverlap) Validate() error {
	if o.CanonicalA == "" || o.CanonicalB == "" {
		return fmt.Errorf("both canonical ids are required")
	}
	if o.CanonicalA == o.CanonicalB {
		return fmt.Errorf("overlap cannot relate a document to itself (%s)", o.CanonicalA)
	}
	if o.CanonicalA > o.CanonicalB {
		return fmt.Errorf("overlap pair must be ordered (got %s > %s)", o.CanonicalA, o.CanonicalB)
	}
	if o.SharedPages < 1 {
		return fmt.Errorf("shared_pages must be at least 1 (got %d)", o.SharedPages)
	}
	return nil
}

// OrderedOverlap returns the overlap with its pair ordered canonically.
// Page slices follow their documents.
func OrderedOverlap(a, b string, pagesA, pagesB []int, shared int, at time.Time) PartialOverlap {
	if a > b {
		a, b = b, a
		pagesA, pagesB = pagesB, pagesA
	}
	return PartialOverlap{
		CanonicalA:  a,
		CanonicalB:  b,
		PagesA:      pagesA,
		PagesB:      pagesB,
		SharedPages: shared,
		RecordedAt:  at,
	}
}

// LogStatus is the outcome recorded for one processing-log operation
type LogStatus string

const (
	LogOK       LogStatus = "ok"
	LogSkipped  LogStatus = "skipped"
	LogDegraded LogStatus = "degraded"
	LogReview   LogStatus = "review"
	LogError    LogStatus = "error"
)

// ProcessingLogEntry is one append-only audit row. Every operation the
// pipeline performs (ingest, merge, selector re-run, skip, error) gets
// an entry; nothing is ever updated or deleted.
type ProcessingLogEntry struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batch_id"`
	Operation   string    `json:"operation"`
	CanonicalID string    `json:"canonical_id,omitempty"`
	Source      string    `json:"source,omitempty"`
	Status      LogStatus `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Statistics summarizes the canonical corpus
type Statistics struct {
	CanonicalDocuments int            `json:"canonical_documents"`
	SourceRecords      int            `json:"source_records"`
	DuplicatesFound    int            `json:"duplicates_found"`
	PartialOverlaps    int            `json:"partial_overlaps"`
	LogEntries         int            `json:"log_entries"`
	ByQuality          map[string]int `json:"by_quality,omitempty"`
	BySource           map[string]int `json:"by_source,omitempty"`
}
