package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *SourceRecord {
	return &SourceRecord{
		ID:            "src-1",
		CanonicalID:   "doc-1",
		SourceName:    "archive",
		AuthorityTier: TierArchive,
		Digests: DigestSet{
			FileHash:    "fh",
			ContentHash: "ch",
			FuzzyHash:   "zh",
		},
	}
}

func TestSourceDocumentValidate(t *testing.T) {
	doc := &SourceDocument{
		Name:          "filing.txt",
		SourceName:    "archive",
		AuthorityTier: TierCourt,
	}
	require.NoError(t, doc.Validate())

	doc.AuthorityTier = "tabloid"
	assert.Error(t, doc.Validate())

	doc.AuthorityTier = TierCourt
	doc.SourceName = ""
	assert.Error(t, doc.Validate())
}

func TestSourceDocumentType(t *testing.T) {
	doc := &SourceDocument{Name: "x", SourceName: "s", AuthorityTier: TierMedia}
	assert.Equal(t, TypeGeneric, doc.DocumentType())

	doc.Metadata = &EmailMetadata{From: "a", To: "b"}
	assert.Equal(t, TypeEmail, doc.DocumentType())
}

func TestAuthorityTierScoreOrdering(t *testing.T) {
	tiers := []AuthorityTier{TierCourt, TierGovernment, TierOfficialRelease, TierArchive, TierMedia}
	for i := 1; i < len(tiers); i++ {
		assert.Greater(t, tiers[i-1].Score(), tiers[i].Score(), "%s should outrank %s", tiers[i-1], tiers[i])
	}
	assert.Equal(t, 0.0, AuthorityTier("blog").Score())
	assert.False(t, AuthorityTier("blog").IsValid())
}

func TestQualityCategory(t *testing.T) {
	tests := []struct {
		overall  float64
		expected QualityCategory
	}{
		{0.95, QualityHigh},
		{0.90, QualityHigh},
		{0.89, QualityMedium},
		{0.70, QualityMedium},
		{0.69, QualityLow},
		{0.0, QualityLow},
	}
	for _, tt := range tests {
		m := QualityMetrics{OverallScore: tt.overall}
		assert.Equal(t, tt.expected, m.Category(), "overall %.2f", tt.overall)
	}
}

func TestQualityMetricsValidate(t *testing.T) {
	m := QualityMetrics{WordScore: 0.5, CorruptionScore: 0.5, LineScore: 0.5, OverallScore: 0.5}
	require.NoError(t, m.Validate())

	m.WordScore = 1.5
	assert.Error(t, m.Validate())
}

func TestCanonicalDocumentValidate(t *testing.T) {
	doc := &CanonicalDocument{
		ID:           "doc-1",
		DocumentType: TypeGeneric,
		ContentHash:  "ch",
	}
	require.NoError(t, doc.Validate())

	doc.DuplicatesFound = -1
	assert.Error(t, doc.Validate())

	doc.DuplicatesFound = 0
	doc.DocumentType = "memo"
	assert.Error(t, doc.Validate())
}

func TestSourceRecordValidate(t *testing.T) {
	rec := validRecord()
	require.NoError(t, rec.Validate())

	rec.Digests.FuzzyHash = ""
	assert.Error(t, rec.Validate(), "incomplete digests must not validate")

	rec = validRecord()
	rec.Completeness = 1.2
	assert.Error(t, rec.Validate())
}

func TestMatchMethodConfidence(t *testing.T) {
	assert.Equal(t, 1.0, MatchExact.Confidence())
	assert.Greater(t, MatchMetadata.Confidence(), MatchFuzzy.Confidence())
	assert.Equal(t, 0.0, MatchMethod("guess").Confidence())
}

func TestOrderedOverlap(t *testing.T) {
	at := time.Now()

	// Pair given out of order is swapped, and page lists follow
	o := OrderedOverlap("doc-b", "doc-a", []int{5, 6}, []int{0, 1}, 2, at)
	assert.Equal(t, "doc-a", o.CanonicalA)
	assert.Equal(t, "doc-b", o.CanonicalB)
	assert.Equal(t, []int{0, 1}, o.PagesA)
	assert.Equal(t, []int{5, 6}, o.PagesB)
	require.NoError(t, o.Validate())

	// Already ordered pair is untouched
	o = OrderedOverlap("doc-a", "doc-b", []int{0}, []int{5}, 1, at)
	assert.Equal(t, "doc-a", o.CanonicalA)
	assert.Equal(t, []int{0}, o.PagesA)
}

func TestPartialOverlapValidate(t *testing.T) {
	tests := []struct {
		name    string
		overlap PartialOverlap
		wantErr bool
	}{
		{
			name:    "valid",
			overlap: PartialOverlap{CanonicalA: "doc-a", CanonicalB: "doc-b", SharedPages: 1},
		},
		{
			name:    "self overlap",
			overlap: PartialOverlap{CanonicalA: "doc-a", CanonicalB: "doc-a", SharedPages: 1},
			wantErr: true,
		},
		{
			name:    "unordered pair",
			overlap: PartialOverlap{CanonicalA: "doc-b", CanonicalB: "doc-a", SharedPages: 1},
			wantErr: true,
		},
		{
			name:    "no shared pages",
			overlap: PartialOverlap{CanonicalA: "doc-a", CanonicalB: "doc-b", SharedPages: 0},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.overlap.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
