package driving

import (
	"context"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// RetrievalService answers queries against a project's indexes.
type RetrievalService interface {
	// Search retrieves the most relevant chunks for a query. With
	// opts.Hybrid set, dense and sparse scores are fused; otherwise the
	// result is dense-only. Returns domain.ErrNoResults when nothing
	// can be retrieved.
	Search(ctx context.Context, projectID int64, query string, opts domain.SearchOptions) ([]domain.RetrievedDocument, error)

	// IndexInfo reports the state of a project's dense and sparse
	// indexes for diagnostics.
	IndexInfo(ctx context.Context, projectID int64) (*IndexInfo, error)
}

// IndexInfo summarises a project's index state.
type IndexInfo struct {
	// CollectionName is the dense collection backing the project.
	CollectionName string

	// VectorSize is the embedding dimensionality.
	VectorSize int

	// PointsCount is the number of dense records.
	PointsCount uint64

	// ChunkCount is the number of stored chunks.
	ChunkCount int64

	// SparseIndexed reports whether a sparse index exists.
	SparseIndexed bool
}
