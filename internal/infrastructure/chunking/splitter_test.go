package chunking

import (
	"strings"
	"testing"
)

func TestSplitProducesOverlappingChunks(t *testing.T) {
	s := NewSplitter(10, 4)
	chunks := s.Split("abcdefghijklmnopqrstuvwxyz")
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "abcdefghij" {
		t.Errorf("unexpected first chunk %q", chunks[0])
	}
	// Step is size-overlap, so the second chunk starts 6 runes in.
	if !strings.HasPrefix(chunks[1], "ghij") {
		t.Errorf("expected overlap into second chunk, got %q", chunks[1])
	}
}

func TestSplitEmptyTextReturnsNil(t *testing.T) {
	s := NewSplitter(100, 10)
	if chunks := s.Split(""); chunks != nil {
		t.Errorf("expected nil, got %v", chunks)
	}
}

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	s := NewSplitter(100, 10)
	chunks := s.Split("  short text  ")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("unexpected chunks %v", chunks)
	}
}

func TestNewSplitterNormalizesBadValues(t *testing.T) {
	s := NewSplitter(0, -5)
	if s.ChunkSize != 900 || s.Overlap != 0 {
		t.Errorf("unexpected defaults: size=%d overlap=%d", s.ChunkSize, s.Overlap)
	}
	s = NewSplitter(100, 200)
	if s.Overlap != 25 {
		t.Errorf("expected overlap clamped to 25, got %d", s.Overlap)
	}
}
