package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// minSearchWindow is the floor for the internal candidate window.
const minSearchWindow = 10

// RetrievalService answers queries with dense or hybrid retrieval.
type RetrievalService struct {
	chunks   driven.ChunkStore
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
	sparse   driven.SparseIndex
	settings *SettingsService
}

// NewRetrievalService creates a retrieval service. The embedder may be
// nil, in which case every search fails with ErrEmbeddingUnavailable.
func NewRetrievalService(
	chunks driven.ChunkStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
	sparse driven.SparseIndex,
	settings *SettingsService,
) *RetrievalService {
	return &RetrievalService{
		chunks:   chunks,
		vectors:  vectors,
		embedder: embedder,
		sparse:   sparse,
		settings: settings,
	}
}

// Search retrieves the most relevant chunks for a query.
//
// Dense retrieval always runs and defines the candidate set; with
// opts.Hybrid set, BM25 scores over the same window are normalised
// against the window's best sparse score and fused in. Candidates the
// sparse index never saw keep a sparse contribution of zero rather than
// being dropped.
func (s *RetrievalService) Search(
	ctx context.Context, projectID int64, query string, opts domain.SearchOptions,
) ([]domain.RetrievedDocument, error) {
	logger.Section("Search Execution")
	logger.Debug("Project %d, query: %q", projectID, query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.settings.SearchLimit()
	}

	// The window oversamples so fusion has candidates to reorder
	window := limit * 2
	if window < minSearchWindow {
		window = minSearchWindow
	}
	logger.Debug("Limit: %d, window: %d, hybrid: %t", limit, window, opts.Hybrid)

	// 1. Embed the query
	vectors, err := s.embedder.EmbedBatch(ctx, []string{query}, driven.PurposeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		logger.Warn("Query embedding came back empty")
		return nil, domain.ErrNoResults
	}

	// 2. Dense search over the project collection
	collection := domain.CollectionName(projectID, s.embedder.Dimensions())
	denseHits, err := s.vectors.SearchByVector(ctx, collection, vectors[0], window)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	logger.Debug("Dense search: %d hits", len(denseHits))
	if len(denseHits) == 0 {
		return nil, domain.ErrNoResults
	}

	results := make([]domain.RetrievedDocument, len(denseHits))
	for i, hit := range denseHits {
		results[i] = domain.RetrievedDocument{
			ChunkID:  hit.RecordID,
			Text:     hit.Text,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		}
	}

	// 3. Fuse in sparse scores when hybrid is on
	if opts.Hybrid && s.sparse != nil {
		alpha := opts.Alpha
		if alpha <= 0 || alpha > 1 {
			alpha = s.settings.SearchAlpha()
		}
		results = s.fuseSparse(ctx, projectID, query, results, window, alpha)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	logger.Info("Final results: %d", len(results))
	return results, nil
}

// fuseSparse rescores dense candidates with window-normalised BM25.
// Sparse failures degrade to dense-only results rather than failing the
// whole search.
func (s *RetrievalService) fuseSparse(
	ctx context.Context, projectID int64, query string,
	dense []domain.RetrievedDocument, window int, alpha float64,
) []domain.RetrievedDocument {
	hits, err := s.sparse.Search(ctx, projectID, query, window)
	if err != nil {
		logger.Warn("Sparse search failed, keeping dense ranking: %v", err)
		return dense
	}
	logger.Debug("Sparse search: %d hits, alpha: %.2f", len(hits), alpha)

	var maxSparse float64
	sparseByID := make(map[int64]float64, len(hits))
	for _, h := range hits {
		sparseByID[h.ChunkID] = h.Score
		if h.Score > maxSparse {
			maxSparse = h.Score
		}
	}

	fused := make([]domain.RetrievedDocument, len(dense))
	for i, doc := range dense {
		sparsePart := 0.0
		if maxSparse > 0 {
			// Normalise against the best sparse score in this window so
			// the two signals share a scale
			sparsePart = sparseByID[doc.ChunkID] / maxSparse
		}
		doc.Score = alpha*doc.Score + (1-alpha)*sparsePart
		fused[i] = doc
	}

	sort.SliceStable(fused, func(a, b int) bool {
		return fused[a].Score > fused[b].Score
	})
	return fused
}

// IndexInfo reports the state of a project's indexes.
func (s *RetrievalService) IndexInfo(ctx context.Context, projectID int64) (*driving.IndexInfo, error) {
	info := &driving.IndexInfo{}

	if s.chunks != nil {
		count, err := s.chunks.CountByProject(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("count chunks: %w", err)
		}
		info.ChunkCount = count
	}
	if s.sparse != nil {
		info.SparseIndexed = s.sparse.Exists(ctx, projectID)
	}
	if s.embedder != nil && s.vectors != nil {
		info.VectorSize = s.embedder.Dimensions()
		info.CollectionName = domain.CollectionName(projectID, info.VectorSize)
		if exists, err := s.vectors.CollectionExists(ctx, info.CollectionName); err == nil && exists {
			if ci, err := s.vectors.CollectionInfo(ctx, info.CollectionName); err == nil {
				info.PointsCount = ci.PointsCount
			}
		}
	}
	return info, nil
}
