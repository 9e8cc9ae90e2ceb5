package domain

// RetrievedDocument is a single retrieval hit: a chunk plus its fused
// relevance score. Scores are only comparable within one response.
type RetrievedDocument struct {
	// ChunkID is the id of the matched chunk.
	ChunkID int64

	// Text is the chunk content.
	Text string

	// Score is the final relevance score after fusion.
	Score float64

	// Metadata is the chunk metadata stored at ingestion time.
	Metadata Metadata
}

// SearchOptions controls a retrieval request.
type SearchOptions struct {
	// Limit is the maximum number of results to return.
	Limit int

	// Hybrid enables sparse fusion on top of dense retrieval.
	Hybrid bool

	// Alpha is the dense weight in hybrid fusion, in (0, 1].
	// The sparse contribution is weighted (1 - Alpha). Values outside
	// the range fall back to the configured default.
	Alpha float64
}
