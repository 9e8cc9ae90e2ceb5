package driven

import "context"

// SparseIndex provides lexical (BM25) search over a project's chunks.
// The index is rebuilt from the chunk store rather than updated in place,
// which keeps document frequencies exact after deletes.
type SparseIndex interface {
	// Build replaces the project's index from the given chunk ids and
	// texts (index-aligned) and persists it. Returns false without error
	// when there is nothing to index, including when no chunk yields a
	// single usable token.
	Build(ctx context.Context, projectID int64, chunkIDs []int64, texts []string) (bool, error)

	// Search scores the query against the project's index and returns
	// up to limit hits with strictly positive scores, best first.
	// A missing index reports ErrSparseIndexUnavailable; a query with no
	// usable tokens yields an empty result.
	Search(ctx context.Context, projectID int64, query string, limit int) ([]SparseHit, error)

	// Exists reports whether a persisted index is present for the project.
	Exists(ctx context.Context, projectID int64) bool

	// Delete removes the project's persisted index. Missing is not an error.
	Delete(ctx context.Context, projectID int64) error
}

// SparseHit represents a lexical search result.
type SparseHit struct {
	// ChunkID is the matched chunk id.
	ChunkID int64

	// Score is the BM25 score, always > 0.
	Score float64
}
