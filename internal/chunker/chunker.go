// Package chunker provides a line-aware fixed-size text chunking processor.
package chunker

import (
	"strings"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
)

// DefaultChunkSize is the default chunk size in bytes.
const DefaultChunkSize = 100

// DefaultOverlap is the default byte overlap between consecutive chunks.
const DefaultOverlap = 20

// Processor splits segment text into fixed-size chunks along line
// boundaries. Lines are accumulated until the buffer reaches the chunk
// size; the tail of each emitted chunk is carried into the next one as
// overlap so context survives the cut.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for at least one new byte per chunk
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize - 1
	}
	if p.overlap < 0 {
		p.overlap = 0
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process cuts the segments into chunks. Chunks inherit their segment's
// metadata plus a 1-based chunk_order that restarts for every segment;
// Order numbers chunks sequentially across all segments. Segments with
// no usable lines produce no chunks.
func (p *Processor) Process(segments []driving.Segment) []*domain.Chunk {
	var chunks []*domain.Chunk
	order := 0

	emit := func(text string, meta domain.Metadata, segOrder int) {
		order++
		md := meta.Clone()
		if md == nil {
			md = make(domain.Metadata)
		}
		md[domain.MetaChunkOrder] = segOrder
		chunks = append(chunks, &domain.Chunk{
			Order:    order,
			Text:     text,
			Metadata: md,
		})
	}

	for _, seg := range segments {
		cur := ""
		segOrder := 0
		for _, line := range strings.Split(seg.Text, "\n") {
			// Blank lines and single-character noise carry no content;
			// surrounding whitespace never counts towards the chunk size
			line = strings.TrimSpace(line)
			if len(line) <= 1 {
				continue
			}
			cur += line + "\n"
			if len(cur) >= p.chunkSize {
				segOrder++
				emit(strings.TrimSpace(cur), seg.Metadata, segOrder)
				if p.overlap > 0 && len(cur) > p.overlap {
					cur = cur[len(cur)-p.overlap:]
				} else {
					cur = ""
				}
			}
		}
		if rest := strings.TrimSpace(cur); rest != "" {
			segOrder++
			emit(rest, seg.Metadata, segOrder)
		}
	}

	return chunks
}
