package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoResults indicates retrieval produced no usable candidates.
	// Callers must distinguish this from an empty-but-successful list:
	// it is returned when query embedding or dense search yields nothing.
	ErrNoResults = errors.New("no results")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Dense and hybrid retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed indicates a batch embedding call failed.
	// The batch is reported so the caller can retry or abort the job.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrVectorStoreUnavailable indicates the dense vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrSparseIndexUnavailable indicates the sparse index dependency is missing.
	// Sparse search degrades to optional; hybrid retrieval falls back to dense.
	ErrSparseIndexUnavailable = errors.New("sparse index unavailable")

	// ErrIngestInProgress indicates a reset raced with an in-flight ingestion.
	// Reset and ingest are serialised per project.
	ErrIngestInProgress = errors.New("ingestion in progress")

	// ErrDiscoveryFailed indicates page discovery failed for a scrape job.
	// This is job-level and retryable; single-page failures are skips.
	ErrDiscoveryFailed = errors.New("page discovery failed")

	// ErrRateLimited indicates an external provider signalled rate limiting.
	// This is a transient-capacity signal; retrying the batch is appropriate.
	ErrRateLimited = errors.New("rate limited")
)
