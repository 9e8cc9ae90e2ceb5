package services

import (
	"context"
	"fmt"

	"github.com/quarrylabs/quarry-cli/internal/chunker"
	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns source content into stored, embedded and
// sparse-indexed chunks.
type IngestService struct {
	chunks   driven.ChunkStore
	assets   driven.AssetStore
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	sparse   driven.SparseIndex
	settings *SettingsService
	locks    *projectLocks
}

// NewIngestService creates an ingest service. The embedder and vector
// store may be nil; chunks are still stored and sparse-indexed, and
// embedding is deferred until the services are configured.
func NewIngestService(
	chunks driven.ChunkStore,
	assets driven.AssetStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	sparse driven.SparseIndex,
	settings *SettingsService,
) *IngestService {
	return &IngestService{
		chunks:   chunks,
		assets:   assets,
		vectors:  vectors,
		embedder: embedder,
		sparse:   sparse,
		settings: settings,
		locks:    newProjectLocks(),
	}
}

// IngestSegments chunks, stores, embeds and indexes the segments under
// the given asset. Appending to a project only embeds the new chunks;
// existing vectors are left untouched.
func (s *IngestService) IngestSegments(
	ctx context.Context, projectID, assetID int64, segments []driving.Segment, opts driving.IngestOptions,
) (*driving.IngestResult, error) {
	lock := s.locks.get(projectID)
	lock.Lock()
	defer lock.Unlock()

	logger.Section("Ingestion")
	logger.Debug("Project %d, asset %d, %d segments", projectID, assetID, len(segments))

	if opts.Reset {
		if err := s.resetLocked(ctx, projectID); err != nil {
			return nil, err
		}
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.settings.ChunkSize()
	}
	overlap := opts.Overlap
	if overlap < 0 {
		overlap = s.settings.ChunkOverlap()
	}

	// 1. Chunk the segments
	proc := chunker.New(chunker.WithChunkSize(chunkSize), chunker.WithOverlap(overlap))
	cut := proc.Process(segments)
	logger.Info("Chunked into %d chunks", len(cut))

	result := &driving.IngestResult{AssetID: assetID}
	if len(cut) == 0 {
		return result, nil
	}
	for _, c := range cut {
		c.ProjectID = projectID
		c.AssetID = assetID
	}

	// 2. Store the chunks
	ids, err := s.chunks.InsertChunks(ctx, cut)
	if err != nil {
		return nil, fmt.Errorf("insert chunks: %w", err)
	}
	result.InsertedChunks = len(ids)

	// 3. Embed only the new chunks into the dense collection
	embedded, err := s.embedLocked(ctx, projectID, cut, ids)
	if err != nil {
		return nil, err
	}
	result.EmbeddedChunks = embedded

	// 4. Rebuild the sparse index over the whole project
	ok, err := s.rebuildSparseLocked(ctx, projectID)
	if err != nil {
		return nil, err
	}
	result.SparseIndexed = ok

	return result, nil
}

// EmbedChunks embeds already-stored chunks by id and upserts them into
// the project's dense collection.
func (s *IngestService) EmbedChunks(ctx context.Context, projectID int64, chunkIDs []int64) (int, error) {
	if len(chunkIDs) == 0 {
		return 0, nil
	}
	lock := s.locks.get(projectID)
	lock.Lock()
	defer lock.Unlock()

	stored, err := s.chunks.ChunksByIDs(ctx, chunkIDs)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}
	ids := make([]int64, len(stored))
	for i, c := range stored {
		ids[i] = c.ID
	}
	return s.embedLocked(ctx, projectID, stored, ids)
}

// embedLocked embeds chunks in batches and upserts them. Callers hold
// the project lock. A nil embedder or vector store is not an error;
// nothing is embedded and 0 is returned.
func (s *IngestService) embedLocked(ctx context.Context, projectID int64, chunks []*domain.Chunk, ids []int64) (int, error) {
	if s.embedder == nil || s.vectors == nil {
		logger.Debug("Embedding skipped: services not configured")
		return 0, nil
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	collection := domain.CollectionName(projectID, s.embedder.Dimensions())
	if _, err := s.vectors.CreateCollection(ctx, collection, s.embedder.Dimensions(), false); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	batchSize := s.settings.EmbeddingBatchSize()
	embedded := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		metadata := make([]domain.Metadata, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
			metadata[i] = c.Metadata
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts, driven.PurposeDocument)
		if err != nil {
			return embedded, fmt.Errorf("%w: batch %d-%d: %v", domain.ErrEmbeddingFailed, start, end, err)
		}
		if len(vectors) != len(batch) {
			return embedded, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingFailed, len(vectors), len(batch))
		}

		if err := s.vectors.InsertMany(ctx, collection, texts, vectors, metadata, ids[start:end]); err != nil {
			return embedded, fmt.Errorf("insert vectors: %w", err)
		}
		embedded += len(batch)
		logger.Debug("Embedded %d/%d chunks", embedded, len(chunks))
	}
	return embedded, nil
}

// RebuildSparse rebuilds the project's sparse index from the chunk store.
func (s *IngestService) RebuildSparse(ctx context.Context, projectID int64) (bool, error) {
	lock := s.locks.get(projectID)
	lock.Lock()
	defer lock.Unlock()
	return s.rebuildSparseLocked(ctx, projectID)
}

func (s *IngestService) rebuildSparseLocked(ctx context.Context, projectID int64) (bool, error) {
	if s.sparse == nil {
		return false, nil
	}

	all, err := s.chunks.ListByProject(ctx, projectID, 0, 0)
	if err != nil {
		return false, fmt.Errorf("list chunks: %w", err)
	}
	ids := make([]int64, len(all))
	texts := make([]string, len(all))
	for i, c := range all {
		ids[i] = c.ID
		texts[i] = c.Text
	}

	if len(all) == 0 {
		// Nothing left to index; drop any stale index file
		if err := s.sparse.Delete(ctx, projectID); err != nil {
			return false, err
		}
		return false, nil
	}

	ok, err := s.sparse.Build(ctx, projectID, ids, texts)
	if err != nil {
		return false, fmt.Errorf("build sparse index: %w", err)
	}
	return ok, nil
}

// DeleteAsset removes an asset with its chunks and vectors, then
// rebuilds the sparse index so document frequencies stay exact.
func (s *IngestService) DeleteAsset(ctx context.Context, projectID, assetID int64) error {
	lock := s.locks.get(projectID)
	lock.Lock()
	defer lock.Unlock()

	ids, err := s.chunks.DeleteByAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	logger.Info("Deleted %d chunks for asset %d", len(ids), assetID)

	if s.embedder != nil && s.vectors != nil && len(ids) > 0 {
		collection := domain.CollectionName(projectID, s.embedder.Dimensions())
		if exists, err := s.vectors.CollectionExists(ctx, collection); err == nil && exists {
			if err := s.vectors.DeleteByRecordIDs(ctx, collection, ids); err != nil {
				return fmt.Errorf("delete vectors: %w", err)
			}
		}
	}

	if err := s.assets.Delete(ctx, assetID); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}

	if _, err := s.rebuildSparseLocked(ctx, projectID); err != nil {
		return err
	}
	return nil
}

// ResetProject drops the project's chunks, dense collection and sparse
// index. Fails fast when an ingestion holds the project lock.
func (s *IngestService) ResetProject(ctx context.Context, projectID int64) error {
	if !s.locks.tryLock(projectID) {
		return domain.ErrIngestInProgress
	}
	defer s.locks.get(projectID).Unlock()

	return s.resetLocked(ctx, projectID)
}

func (s *IngestService) resetLocked(ctx context.Context, projectID int64) error {
	logger.Section("Project Reset")

	if s.embedder != nil && s.vectors != nil {
		collection := domain.CollectionName(projectID, s.embedder.Dimensions())
		if err := s.vectors.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
	}
	if err := s.chunks.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if s.sparse != nil {
		if err := s.sparse.Delete(ctx, projectID); err != nil {
			return err
		}
	}
	logger.Info("Project %d reset", projectID)
	return nil
}
