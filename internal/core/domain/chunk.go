package domain

// Chunk is the unit of indexing and retrieval: a contiguous slice of a
// source document small enough to embed. Chunk ids are assigned by the
// store on insert and are the join key between the chunk store, the
// dense index payloads and the sparse index postings.
type Chunk struct {
	// ID is assigned by the store on insert.
	ID int64

	// ProjectID is the owning project.
	ProjectID int64

	// AssetID is the source asset the chunk was cut from.
	AssetID int64

	// Order is the 1-based position of the chunk within its asset.
	Order int

	// Text is the chunk content.
	Text string

	// Metadata carries source attribution (see the Meta* keys).
	Metadata Metadata
}
