package driving

import (
	"context"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// Segment is one pre-chunking unit of source text, e.g. a document page
// or an extracted web page, with the metadata every chunk cut from it
// inherits.
type Segment struct {
	// Text is the segment content.
	Text string

	// Metadata is attached to every chunk produced from the segment.
	Metadata domain.Metadata
}

// IngestOptions controls an ingestion run.
type IngestOptions struct {
	// ChunkSize is the target chunk size in bytes. 0 uses the configured default.
	ChunkSize int

	// Overlap is the byte overlap between consecutive chunks.
	// Negative uses the configured default; 0 disables overlap.
	Overlap int

	// Reset drops the project's existing chunks and indexes first.
	Reset bool
}

// IngestResult reports what an ingestion run produced.
type IngestResult struct {
	// AssetID is the asset the chunks were attached to.
	AssetID int64

	// InsertedChunks is the number of chunks stored.
	InsertedChunks int

	// EmbeddedChunks is the number of chunks embedded and upserted densely.
	EmbeddedChunks int

	// SparseIndexed reports whether the sparse index was rebuilt.
	SparseIndexed bool
}

// IngestService turns source content into indexed chunks.
type IngestService interface {
	// IngestSegments chunks the segments, stores the chunks under the
	// asset, embeds them in batches into the project's dense collection
	// and rebuilds the sparse index. Appending to an existing project
	// never re-embeds chunks that are already indexed.
	IngestSegments(ctx context.Context, projectID, assetID int64, segments []Segment, opts IngestOptions) (*IngestResult, error)

	// EmbedChunks embeds already-stored chunks by id and upserts them
	// into the dense collection. Used to flush deferred embeddings when
	// a scrape resumes.
	EmbedChunks(ctx context.Context, projectID int64, chunkIDs []int64) (int, error)

	// RebuildSparse rebuilds the project's sparse index from the chunk
	// store. Returns false when the project has no chunks.
	RebuildSparse(ctx context.Context, projectID int64) (bool, error)

	// DeleteAsset removes an asset, its chunks, its dense vectors and
	// rebuilds the sparse index.
	DeleteAsset(ctx context.Context, projectID, assetID int64) error

	// ResetProject drops the project's chunks, dense collection and
	// sparse index. Fails with domain.ErrIngestInProgress if an
	// ingestion is running for the project.
	ResetProject(ctx context.Context, projectID int64) error
}
