package hash

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes extracted text before content hashing: lowercase,
// whitespace collapsed to single spaces, common OCR artifacts stripped.
// Two extractions of the same underlying content (PDF text layer vs. plain
// text export) normalize to the same string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lower))

	prevSpace := true // leading whitespace is dropped
	prevHyphen := false

	for _, r := range lower {
		switch {
		case r == '\u00ad' || r == '\ufeff' || r == '\ufffd':
			// Soft hyphens, BOMs and replacement chars are extraction
			// noise, never content
			continue
		case r == '-' || r == '\u2010' || r == '\u2011':
			// Defer hyphens: a hyphen right before a line break is almost
			// always a word split by the OCR layout, so the pieces are
			// rejoined
			prevHyphen = true
			continue
		case unicode.IsSpace(r):
			if prevHyphen {
				prevHyphen = false
				if r == '\n' || r == '\r' {
					// Hyphen-linebreak: join the word halves, swallowing
					// the rest of the break
					prevSpace = true
					continue
				}
				// A hyphen before ordinary spacing is a separator
				// ("pages 1 - 10"), real content
				b.WriteByte('-')
				prevSpace = false
			}
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsControl(r):
			continue
		default:
			if prevHyphen {
				// Hyphen inside a word is real content
				b.WriteByte('-')
				prevHyphen = false
			}
			b.WriteRune(r)
			prevSpace = false
		}
	}
	if prevHyphen {
		b.WriteByte('-')
	}

	return strings.TrimRight(b.String(), " ")
}

// Tokens splits normalized text into word tokens
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}
