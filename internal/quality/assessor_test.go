package quality

import (
	"strings"
	"testing"

	"github.com/openarchive/canon/internal/types"
)

// cleanProse is built entirely from reference-dictionary vocabulary
const cleanProse = "The court filed the order on the date of the hearing. " +
	"The judge denied the motion and the parties received notice of the ruling. " +
	"The attorney for the defendant requested a copy of the deposition transcript."

func TestAssessCleanText(t *testing.T) {
	m := Assess(cleanProse)

	if err := m.Validate(); err != nil {
		t.Fatalf("metrics out of range: %v", err)
	}
	if m.WordScore < 0.85 {
		t.Errorf("clean prose word score %.3f, want >= 0.85", m.WordScore)
	}
	if m.CorruptionScore < 0.99 {
		t.Errorf("clean prose corruption score %.3f, want ~1.0", m.CorruptionScore)
	}
	if m.OverallScore < 0.85 {
		t.Errorf("clean prose overall %.3f, want >= 0.85", m.OverallScore)
	}
}

func TestAssessEmptyText(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Assess(tt.input)
			if m.OverallScore != 0.0 {
				t.Errorf("overall = %.3f, want 0.0", m.OverallScore)
			}
			if m.Category() != types.QualityLow {
				t.Errorf("category = %s, want low", m.Category())
			}
		})
	}
}

func TestAssessGarbledText(t *testing.T) {
	garbled := strings.Repeat("x�j9 q�#z kf� w�1 ", 40)
	m := Assess(garbled)

	if m.WordScore > 0.10 {
		t.Errorf("garbage word score %.3f, want near 0", m.WordScore)
	}
	if m.CorruptionScore > 0.95 {
		t.Errorf("garbage corruption score %.3f, want degraded", m.CorruptionScore)
	}
	if m.OverallScore >= 0.70 {
		t.Errorf("garbage overall %.3f, want below medium threshold", m.OverallScore)
	}
}

func TestAssessOrdering(t *testing.T) {
	// A noisier OCR pass of the same document must score below the clean one
	noisy := strings.ReplaceAll(cleanProse, "the", "t�e")
	noisy = strings.ReplaceAll(noisy, "court", "c0urt")

	clean := Assess(cleanProse)
	degraded := Assess(noisy)

	if degraded.OverallScore >= clean.OverallScore {
		t.Errorf("noisy copy scored %.3f, clean copy %.3f; expected clean > noisy",
			degraded.OverallScore, clean.OverallScore)
	}
}

func TestLineScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  float64
		max  float64
	}{
		{
			name: "well formed prose lines",
			text: "The committee met on the first day of the quarter.\nThe report was approved and filed with the office.",
			min:  0.99,
			max:  1.0,
		},
		{
			name: "hyphen broken lines",
			text: "The commit-\ntee met on the fol-\nlowing day to dis-\ncuss the report.",
			min:  0.0,
			max:  0.50,
		},
		{
			name: "fragmented layout",
			text: "the\nreport\nwas\nfiled with the county office and served on the parties.",
			min:  0.0,
			max:  0.50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lineScore(tt.text)
			if got < tt.min || got > tt.max {
				t.Errorf("lineScore = %.3f, want in [%.2f, %.2f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestCategoryThresholds(t *testing.T) {
	tests := []struct {
		overall  float64
		expected types.QualityCategory
	}{
		{0.95, types.QualityHigh},
		{0.90, types.QualityHigh},
		{0.89, types.QualityMedium},
		{0.70, types.QualityMedium},
		{0.69, types.QualityLow},
		{0.0, types.QualityLow},
	}
	for _, tt := range tests {
		m := types.QualityMetrics{OverallScore: tt.overall}
		if got := m.Category(); got != tt.expected {
			t.Errorf("Category(%.2f) = %s, want %s", tt.overall, got, tt.expected)
		}
	}
}

func TestWordScoreIgnoresNumericTokens(t *testing.T) {
	// Case numbers and amounts should not drag the score down
	withNumbers := cleanProse + " 22-cv-01234 $1,500.00 2024-03-01"
	plain := Assess(cleanProse)
	numbered := Assess(withNumbers)

	if numbered.WordScore < plain.WordScore-0.01 {
		t.Errorf("numeric tokens penalized word score: %.3f vs %.3f",
			numbered.WordScore, plain.WordScore)
	}
}
