package chunker

import (
	"strings"
	"testing"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, p.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(50))
		if p.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.chunkSize)
		}
		if p.overlap != 50 {
			t.Errorf("expected overlap 50, got %d", p.overlap)
		}
	})

	t.Run("overlap clamped below chunk size", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		if p.overlap != 99 {
			t.Errorf("expected overlap clamped to 99, got %d", p.overlap)
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcess_EmptySegment(t *testing.T) {
	p := New()
	chunks := p.Process([]driving.Segment{{Text: ""}})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty segment, got %d", len(chunks))
	}
}

func TestProcess_ShortLinesDropped(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))

	// Twenty one-character lines carry no indexable content
	seg := driving.Segment{Text: strings.Repeat("x\n", 20)}
	chunks := p.Process([]driving.Segment{seg})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for single-character lines, got %d", len(chunks))
	}
}

func TestProcess_OverlapCarriedAcrossChunks(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))

	lineA := strings.Repeat("a", 70)
	lineB := strings.Repeat("b", 49)
	seg := driving.Segment{
		Text:     lineA + "\n" + lineB,
		Metadata: domain.Metadata{domain.MetaSource: "guide.md"},
	}

	chunks := p.Process([]driving.Segment{seg})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].Text != lineA+"\n"+lineB {
		t.Errorf("unexpected first chunk: %q", chunks[0].Text)
	}
	// The 20-byte tail of the buffer is 19 b's plus the trailing newline,
	// which trims to 19 b's
	if chunks[1].Text != strings.Repeat("b", 19) {
		t.Errorf("unexpected overlap chunk: %q", chunks[1].Text)
	}

	for i, c := range chunks {
		if c.Order != i+1 {
			t.Errorf("chunk %d: expected order %d, got %d", i, i+1, c.Order)
		}
		if c.Metadata[domain.MetaChunkOrder] != i+1 {
			t.Errorf("chunk %d: expected chunk_order %d, got %v", i, i+1, c.Metadata[domain.MetaChunkOrder])
		}
		if c.Metadata[domain.MetaSource] != "guide.md" {
			t.Errorf("chunk %d: segment metadata not inherited", i)
		}
	}
}

func TestProcess_MultiSegmentOrdering(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))

	lines := []string{
		strings.Repeat("c", 49),
		strings.Repeat("d", 49),
		strings.Repeat("e", 49),
		strings.Repeat("f", 49),
		strings.Repeat("g", 49),
		strings.Repeat("h", 49),
	}

	segments := []driving.Segment{
		{Text: strings.Repeat("a", 70) + "\n" + strings.Repeat("b", 49)},
		{Text: strings.Repeat("x\n", 20)},
		{Text: strings.Join(lines, "\n")},
	}

	chunks := p.Process(segments)
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(chunks))
	}

	want := []string{
		strings.Repeat("a", 70) + "\n" + strings.Repeat("b", 49),
		strings.Repeat("b", 19),
		lines[0] + "\n" + lines[1],
		strings.Repeat("d", 19) + "\n" + lines[2] + "\n" + lines[3],
		strings.Repeat("f", 19) + "\n" + lines[4] + "\n" + lines[5],
		strings.Repeat("h", 19),
	}
	// chunk_order counts within each segment; the empty middle segment
	// contributes nothing
	wantChunkOrder := []int{1, 2, 1, 2, 3, 4}
	for i, c := range chunks {
		if c.Text != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, c.Text, want[i])
		}
		if c.Order != i+1 {
			t.Errorf("chunk %d: expected order %d, got %d", i, i+1, c.Order)
		}
		if c.Metadata[domain.MetaChunkOrder] != wantChunkOrder[i] {
			t.Errorf("chunk %d: expected chunk_order %d, got %v", i, wantChunkOrder[i], c.Metadata[domain.MetaChunkOrder])
		}
	}
}

func TestProcess_ChunkOrderRestartsPerSegment(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))

	text := strings.Repeat("a", 70) + "\n" + strings.Repeat("b", 49)
	chunks := p.Process([]driving.Segment{{Text: text}, {Text: text}})
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}

	if got := chunks[2].Metadata[domain.MetaChunkOrder]; got != 1 {
		t.Errorf("first chunk of second segment: expected chunk_order 1, got %v", got)
	}
	if chunks[2].Order != 3 {
		t.Errorf("first chunk of second segment: expected order 3, got %d", chunks[2].Order)
	}
}

func TestProcess_IndentedLinesTrimmed(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))

	plain := strings.Repeat("a", 70) + "\n" + strings.Repeat("b", 49)
	indented := "    " + strings.Repeat("a", 70) + "\n\t" + strings.Repeat("b", 49) + "  "

	want := p.Process([]driving.Segment{{Text: plain}})
	got := p.Process([]driving.Segment{{Text: indented}})
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Text != want[i].Text {
			t.Errorf("chunk %d: indentation changed the cut: got %q, want %q", i, got[i].Text, want[i].Text)
		}
	}
}

func TestProcess_Deterministic(t *testing.T) {
	p := New(WithChunkSize(100), WithOverlap(20))
	seg := driving.Segment{Text: strings.Repeat("line of sample text here\n", 40)}

	first := p.Process([]driving.Segment{seg})
	second := p.Process([]driving.Segment{seg})

	if len(first) != len(second) {
		t.Fatalf("chunk count changed between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestProcess_ZeroOverlap(t *testing.T) {
	p := New(WithChunkSize(50), WithOverlap(0))

	seg := driving.Segment{Text: strings.Repeat("m", 49) + "\n" + strings.Repeat("n", 49)}
	chunks := p.Process([]driving.Segment{seg})
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	// Each line crosses the threshold on its own; nothing carries over
	if chunks[0].Text != strings.Repeat("m", 49) {
		t.Errorf("unexpected first chunk: %q", chunks[0].Text)
	}
	if chunks[1].Text != strings.Repeat("n", 49) {
		t.Errorf("unexpected second chunk: %q", chunks[1].Text)
	}
}
