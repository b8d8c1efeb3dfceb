package types

// FuzzyCandidate is one existing canonical document returned from a
// fuzzy-bucket lookup, carrying what the matcher needs to compare without
// another round trip: the stored fuzzy hash and the normalized text.
type FuzzyCandidate struct {
	CanonicalID    string `json:"canonical_id"`
	FuzzyHash      string `json:"fuzzy_hash"`
	NormalizedText string `json:"normalized_text"`
}

// PageHashHit is one existing canonical document sharing a page hash with
// the document being matched
type PageHashHit struct {
	CanonicalID string `json:"canonical_id"`
	PageIndex   int    `json:"page_index"`
	PageHash    string `json:"page_hash"`
}
