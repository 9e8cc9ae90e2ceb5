package driven

import (
	"context"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// VectorStore provides dense similarity search over named collections.
// Backed by Qdrant in production; an in-memory implementation exists for
// tests. One collection holds one project's vectors, payloads carry the
// chunk text and metadata so hits need no second lookup.
type VectorStore interface {
	// CreateCollection ensures a collection with the given vector size
	// exists. When reset is true an existing collection is dropped first.
	// Returns true if a collection was (re)created.
	CreateCollection(ctx context.Context, name string, vectorSize int, reset bool) (bool, error)

	// DeleteCollection drops a collection. Missing collections are not an error.
	DeleteCollection(ctx context.Context, name string) error

	// CollectionExists reports whether the collection is present.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CollectionInfo returns backend details for diagnostics.
	CollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)

	// InsertMany upserts records. texts, vectors, metadata and recordIDs
	// are index-aligned; recordIDs are chunk ids and double as point ids,
	// so re-inserting a chunk overwrites its previous vector.
	InsertMany(ctx context.Context, name string, texts []string, vectors [][]float32, metadata []domain.Metadata, recordIDs []int64) error

	// DeleteByRecordIDs removes the points for the given chunk ids.
	DeleteByRecordIDs(ctx context.Context, name string, recordIDs []int64) error

	// SearchByVector returns the top-limit nearest records by cosine
	// similarity, best first.
	SearchByVector(ctx context.Context, name string, vector []float32, limit int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a dense similarity search result.
type VectorHit struct {
	// RecordID is the matched chunk id.
	RecordID int64

	// Text is the chunk text stored in the payload.
	Text string

	// Score is the cosine similarity score.
	Score float64

	// Metadata is the chunk metadata stored in the payload.
	Metadata domain.Metadata
}

// CollectionInfo describes a collection for diagnostics.
type CollectionInfo struct {
	// Name is the collection name.
	Name string

	// VectorSize is the configured dimensionality.
	VectorSize int

	// PointsCount is the number of stored records.
	PointsCount uint64
}
