// Package quality scores extracted text on a [0,1] scale from the text
// alone: dictionary-word fraction, encoding-corruption fraction, and
// line-break consistency, combined into a fixed weighted overall score.
//
// Assessment never fails. Absent or empty text yields an overall score of
// 0.0, not an error; a canonical record is still created for it downstream.
package quality

import (
	"strings"
	"unicode"

	"github.com/openarchive/canon/internal/types"
)

// Score category thresholds
const (
	// wordWeight, corruptionWeight and lineWeight are the fixed overall
	// combination; roughly equal thirds per the scoring rubric
	wordWeight       = 0.34
	corruptionWeight = 0.33
	lineWeight       = 0.33

	// shortLineRunes is the length below which a non-terminal line is
	// considered a layout fragment rather than prose
	shortLineRunes = 12
)

// Assess scores the extracted text. Pure function, never returns an error;
// empty or whitespace-only text scores 0.0 overall.
func Assess(text string) types.QualityMetrics {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return types.QualityMetrics{}
	}

	word := wordScore(trimmed)
	corruption := corruptionScore(trimmed)
	line := lineScore(text)

	overall := clamp(wordWeight*word + corruptionWeight*corruption + lineWeight*line)

	return types.QualityMetrics{
		WordScore:       word,
		CorruptionScore: corruption,
		LineScore:       line,
		OverallScore:    overall,
	}
}

// wordScore is the fraction of alphabetic tokens found in the reference
// dictionary. Tokens with digits or symbols are ignored rather than
// penalized: case numbers and amounts are legitimate content.
func wordScore(text string) float64 {
	tokens := strings.Fields(strings.ToLower(text))
	alphabetic := 0
	matched := 0
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,;:!?()[]{}\"'")
		if tok == "" || !isAlphabetic(tok) {
			continue
		}
		alphabetic++
		if inDictionary(tok) {
			matched++
		}
	}
	if alphabetic == 0 {
		return 0.0
	}
	return float64(matched) / float64(alphabetic)
}

func isAlphabetic(tok string) bool {
	for _, r := range tok {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

// corruptionScore is 1 minus the fraction of characters exhibiting
// mojibake or encoding-corruption patterns
func corruptionScore(text string) float64 {
	total := 0
	corrupt := 0
	runes := []rune(text)
	for i, r := range runes {
		total++
		switch {
		case r == '�':
			corrupt++
		case r >= 0x80 && r <= 0x9f:
			// C1 control range: never legitimate in extracted text
			corrupt++
		case unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' && r != '\f':
			corrupt++
		case (r == 'Ã' || r == 'Â' || r == 'â') && i+1 < len(runes) && runes[i+1] >= 0x80:
			// Classic UTF-8-as-Latin-1 mojibake digraphs
			corrupt++
		}
	}
	if total == 0 {
		return 0.0
	}
	return clamp(1.0 - float64(corrupt)/float64(total))
}

// lineScore measures how consistently line breaks fall where prose
// structure expects them. Lines broken mid-word (trailing hyphen) and
// runs of very short fragments both indicate layout-driven OCR breaks.
func lineScore(text string) float64 {
	lines := strings.Split(text, "\n")
	considered := 0
	sound := 0
	for i, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		considered++

		lastLine := i == len(lines)-1
		switch {
		case strings.HasSuffix(line, "-") && !lastLine:
			// Mid-word split carried to the next line
		case len([]rune(strings.TrimSpace(line))) < shortLineRunes && !lastLine && !endsSentence(line):
			// Fragmentary line that neither ends a sentence nor ends
			// the document
		default:
			sound++
		}
	}
	if considered == 0 {
		return 0.0
	}
	return float64(sound) / float64(considered)
}

func endsSentence(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	switch line[len(line)-1] {
	case '.', '!', '?', ':':
		return true
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
