package ollama

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateForExtractionKeepsShortTextIntact(t *testing.T) {
	text := "short document"
	if got := truncateForExtraction(text); got != text {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestTruncateForExtractionCutsOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddles the byte cap, so a naive byte slice would
	// leave a dangling continuation byte.
	text := strings.Repeat("a", maxExtractionChars-1) + "é" + strings.Repeat("b", 50)

	got := truncateForExtraction(text)

	if len(got) > maxExtractionChars {
		t.Fatalf("truncated text is %d bytes, cap is %d", len(got), maxExtractionChars)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8")
	}
	if want := strings.Repeat("a", maxExtractionChars-1); got != want {
		t.Errorf("expected cut before the straddling rune, got %d bytes", len(got))
	}
}
