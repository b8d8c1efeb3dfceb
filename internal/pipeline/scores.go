package pipeline

import (
	"strings"
	"unicode/utf8"
)

// Redaction markers commonly left by extraction tooling. Block glyphs
// cover scanned bar redactions; the bracket forms cover typed ones.
var redactionMarkers = []string{
	"[REDACTED]",
	"[redacted]",
	"XXXXX",
	"█", // full block
}

// redactionCompleteness estimates how un-redacted a copy is: 1.0 means
// nothing observably redacted. It scores observable extent only and says
// nothing about what the redactions hide.
func redactionCompleteness(text string) float64 {
	if text == "" {
		return 1.0
	}
	redacted := 0
	for _, marker := range redactionMarkers {
		redacted += strings.Count(text, marker) * utf8.RuneCountInString(marker)
	}
	total := utf8.RuneCountInString(text)
	if redacted >= total {
		return 0.0
	}
	// Markers stand in for far more text than they occupy, so weight
	// each redacted rune tenfold before taking the fraction
	fraction := float64(redacted*10) / float64(total)
	if fraction > 1.0 {
		fraction = 1.0
	}
	return 1.0 - fraction
}

// completeness estimates how much of the underlying document this copy
// contains. Empty or placeholder pages count against it.
func completeness(pages []string) float64 {
	if len(pages) == 0 {
		return 0.0
	}
	present := 0
	for _, page := range pages {
		trimmed := strings.TrimSpace(page)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "[page missing]") || strings.EqualFold(trimmed, "[missing]") {
			continue
		}
		present++
	}
	return float64(present) / float64(len(pages))
}
