// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbedPurpose distinguishes document embeddings from query embeddings.
// Some models (e.g. nomic-embed-text) prepend different task prefixes for
// each and the two must never be mixed within one collection.
type EmbedPurpose string

const (
	// PurposeDocument marks texts embedded for storage in a collection.
	PurposeDocument EmbedPurpose = "document"

	// PurposeQuery marks texts embedded to search a collection.
	PurposeQuery EmbedPurpose = "query"
)

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, dense and hybrid retrieval are
// disabled and the caller gets ErrEmbeddingUnavailable.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result is index-aligned with texts. Purpose selects document
	// or query conditioning where the model distinguishes them.
	EmbedBatch(ctx context.Context, texts []string, purpose EmbedPurpose) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This is determined by the model and must match the collection configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
