package extract

import (
	"strings"
	"testing"
)

func TestSegmenter_BlankInput(t *testing.T) {
	s := NewSegmenter()

	for _, in := range []string{"", "   ", "\n\t\n"} {
		if chunks := s.Segment(in); len(chunks) != 0 {
			t.Errorf("Segment(%q): expected no chunks, got %d", in, len(chunks))
		}
	}
}

func TestSegmenter_NoAnchorsYieldsWholeText(t *testing.T) {
	s := NewSegmenter()

	chunks := s.Segment("  סכום: 250 ש״ח  ")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != `סכום: 250 ש"ח` {
		t.Errorf("Unexpected chunk text %q", chunks[0].Text)
	}
	if chunks[0].Offset != 2 {
		t.Errorf("Expected offset 2, got %d", chunks[0].Offset)
	}
}

func TestSegmenter_LabelBlocks(t *testing.T) {
	s := NewSegmenter()

	chunks := s.Segment(structuredText)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0].Text, "שם: ליאת ישראלי") {
		t.Errorf("First chunk starts with %q", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "שם: נועה גולדברג") {
		t.Errorf("Second chunk starts with %q", chunks[1].Text)
	}
	if chunks[0].Offset >= chunks[1].Offset {
		t.Errorf("Chunks out of order: %d >= %d", chunks[0].Offset, chunks[1].Offset)
	}
	if strings.Contains(chunks[0].Text, "התעמלות") {
		t.Error("Preamble before the first anchor should not belong to a chunk")
	}
}

func TestSegmenter_NameRunsConfirmedByID(t *testing.T) {
	s := NewSegmenter()

	chunks := s.Segment(narrativeText)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	for i, prefix := range []string{"שרה כהן", "רחל לוי", "מיכל דוד"} {
		if !strings.HasPrefix(chunks[i].Text, prefix) {
			t.Errorf("Chunk %d: expected prefix %q, got %q", i, prefix, chunks[i].Text)
		}
	}
}

func TestSegmenter_LabelAndNameShareOneID(t *testing.T) {
	s := NewSegmenter()

	// the name on the label line must not open a second chunk
	chunks := s.Segment("שם: מירי דוד, ת״ז 123456789, סכום 250")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d: %+v", len(chunks), chunks)
	}
}

func TestSegmenter_NameWithoutIDIsNotAnAnchor(t *testing.T) {
	s := NewSegmenter()

	chunks := s.Segment("מירי דוד הגיעה לשיעור\nנועה לוי שילמה 250")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Offset != 0 {
		t.Errorf("Expected the whole text, got offset %d", chunks[0].Offset)
	}
}

func TestSegmenter_WindowLimitsNameToIDDistance(t *testing.T) {
	s := NewSegmenterWithWindow(5)

	chunks := s.Segment("נועה לוי השתתפה בקורס ת״ז 123456789")
	if len(chunks) != 1 || chunks[0].Offset != 0 {
		t.Fatalf("Expected the whole text as one chunk, got %+v", chunks)
	}
}
