package pipeline

import (
	"strings"
	"testing"
)

func TestRedactionCompleteness(t *testing.T) {
	clean := "nothing is hidden in this copy of the record"
	if got := redactionCompleteness(clean); got != 1.0 {
		t.Errorf("clean text scored %.3f, want 1.0", got)
	}

	redacted := strings.Repeat("the recipient was [REDACTED] according to the file ", 10)
	got := redactionCompleteness(redacted)
	if got >= 1.0 {
		t.Errorf("redacted text scored %.3f, want below 1.0", got)
	}
	if got < 0.0 {
		t.Errorf("score out of range: %.3f", got)
	}

	heavier := strings.Repeat("[REDACTED] [REDACTED] name withheld ", 10)
	if redactionCompleteness(heavier) >= got {
		t.Error("heavier redaction should score lower")
	}

	if redactionCompleteness("") != 1.0 {
		t.Error("empty text has nothing observably redacted")
	}
}

func TestCompleteness(t *testing.T) {
	full := []string{"page one", "page two", "page three"}
	if got := completeness(full); got != 1.0 {
		t.Errorf("full document scored %.3f, want 1.0", got)
	}

	holes := []string{"page one", "", "[PAGE MISSING]", "page four"}
	if got := completeness(holes); got != 0.5 {
		t.Errorf("half-present document scored %.3f, want 0.5", got)
	}

	if completeness(nil) != 0.0 {
		t.Error("no pages means nothing present")
	}
}
