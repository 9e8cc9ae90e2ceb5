// Package memory provides an in-memory VectorStore with exact cosine
// similarity search. Used in tests and for small corpora where running
// Qdrant is not worth it.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// record is one stored point.
type record struct {
	id       int64
	text     string
	vector   []float32
	metadata domain.Metadata
}

// collection holds the records of one named collection.
type collection struct {
	vectorSize int
	records    map[int64]*record
}

// Store is an in-memory vector store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ driven.VectorStore = (*Store)(nil)

// New creates an empty in-memory vector store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// CreateCollection ensures a collection exists, dropping it first when
// reset is set.
func (s *Store) CreateCollection(_ context.Context, name string, vectorSize int, reset bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[name]; ok {
		if !reset {
			if existing.vectorSize != vectorSize {
				return false, fmt.Errorf("memory: collection %s has size %d, requested %d", name, existing.vectorSize, vectorSize)
			}
			return false, nil
		}
	}
	s.collections[name] = &collection{vectorSize: vectorSize, records: make(map[int64]*record)}
	return true, nil
}

// DeleteCollection drops a collection.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// CollectionExists reports whether the collection is present.
func (s *Store) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// CollectionInfo returns collection details.
func (s *Store) CollectionInfo(_ context.Context, name string) (*driven.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &driven.CollectionInfo{
		Name:        name,
		VectorSize:  c.vectorSize,
		PointsCount: uint64(len(c.records)),
	}, nil
}

// InsertMany upserts records. Re-inserting an id overwrites its vector.
func (s *Store) InsertMany(_ context.Context, name string, texts []string, vectors [][]float32, metadata []domain.Metadata, recordIDs []int64) error {
	if len(texts) != len(vectors) || len(texts) != len(recordIDs) {
		return fmt.Errorf("memory: mismatched insert lengths")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return domain.ErrNotFound
	}
	for i, id := range recordIDs {
		var md domain.Metadata
		if i < len(metadata) {
			md = metadata[i].Clone()
		}
		c.records[id] = &record{
			id:       id,
			text:     texts[i],
			vector:   vectors[i],
			metadata: md,
		}
	}
	return nil
}

// DeleteByRecordIDs removes the points for the given ids.
func (s *Store) DeleteByRecordIDs(_ context.Context, name string, recordIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return nil
	}
	for _, id := range recordIDs {
		delete(c.records, id)
	}
	return nil
}

// SearchByVector returns the top-limit records by cosine similarity.
func (s *Store) SearchByVector(_ context.Context, name string, vector []float32, limit int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(c.records))
	for _, r := range c.records {
		hits = append(hits, driven.VectorHit{
			RecordID: r.id,
			Text:     r.text,
			Score:    cosine(vector, r.vector),
			Metadata: r.metadata.Clone(),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RecordID < hits[j].RecordID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error { return nil }

// cosine computes cosine similarity between two vectors. Mismatched or
// zero-magnitude vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
