package driven

import (
	"context"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// ProjectStore persists projects.
type ProjectStore interface {
	// GetOrCreate returns the project with the given name, creating it
	// on first reference.
	GetOrCreate(ctx context.Context, name string) (*domain.Project, error)

	// Get returns a project by id, or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Project, error)

	// List returns all projects ordered by id.
	List(ctx context.Context) ([]*domain.Project, error)

	// Delete removes a project. Assets and chunks cascade.
	Delete(ctx context.Context, id int64) error
}

// AssetStore persists assets.
type AssetStore interface {
	// Insert stores an asset and returns its assigned id.
	Insert(ctx context.Context, asset *domain.Asset) (int64, error)

	// Get returns an asset by id, or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Asset, error)

	// GetByName returns the project's asset with the given name,
	// or domain.ErrNotFound.
	GetByName(ctx context.Context, projectID int64, name string) (*domain.Asset, error)

	// ListByProject returns a project's assets ordered by id.
	ListByProject(ctx context.Context, projectID int64) ([]*domain.Asset, error)

	// Delete removes an asset. Its chunks cascade.
	Delete(ctx context.Context, id int64) error
}

// ChunkStore persists chunks.
type ChunkStore interface {
	// InsertChunks stores chunks in order and returns their assigned ids,
	// index-aligned with the input.
	InsertChunks(ctx context.Context, chunks []*domain.Chunk) ([]int64, error)

	// ChunksByIDs returns the chunks for the given ids, in the given
	// order. Missing ids are omitted.
	ChunksByIDs(ctx context.Context, ids []int64) ([]*domain.Chunk, error)

	// ListByProject returns a page of a project's chunks ordered by id.
	// A limit <= 0 means no limit.
	ListByProject(ctx context.Context, projectID int64, offset, limit int) ([]*domain.Chunk, error)

	// CountByProject returns the number of chunks in a project.
	CountByProject(ctx context.Context, projectID int64) (int64, error)

	// DeleteByAsset removes an asset's chunks and returns their ids so
	// callers can clean up the dense index.
	DeleteByAsset(ctx context.Context, assetID int64) ([]int64, error)

	// DeleteByProject removes all chunks in a project.
	DeleteByProject(ctx context.Context, projectID int64) error
}
