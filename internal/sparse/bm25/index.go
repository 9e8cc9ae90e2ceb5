// Package bm25 implements a persistent Okapi BM25 lexical index.
//
// One index file exists per project, rebuilt wholesale from the chunk
// store rather than updated in place so document frequencies stay exact
// after deletes. The on-disk format is gob.
package bm25

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// Okapi BM25 parameters.
const (
	k1 = 1.5
	b  = 0.75
)

// model is the persisted index state for one project.
type model struct {
	// ChunkIDs maps document position to chunk id.
	ChunkIDs []int64

	// TermFreqs holds per-document term frequencies, aligned with ChunkIDs.
	TermFreqs []map[string]int

	// DocFreqs counts how many documents contain each term.
	DocFreqs map[string]int

	// DocLens holds per-document token counts, aligned with ChunkIDs.
	DocLens []int

	// AvgDocLen is the mean of DocLens.
	AvgDocLen float64
}

// Index stores one BM25 model per project as a gob file under dataDir.
type Index struct {
	dataDir string
}

var _ driven.SparseIndex = (*Index)(nil)

// New creates a BM25 index rooted at dataDir. The directory is created
// on first build.
func New(dataDir string) *Index {
	return &Index{dataDir: dataDir}
}

func (i *Index) path(projectID int64) string {
	return filepath.Join(i.dataDir, fmt.Sprintf("bm25_%d.gob", projectID))
}

// Build replaces the project's index from the given chunks and persists
// it. Returns false without error when there is nothing to index.
func (i *Index) Build(ctx context.Context, projectID int64, chunkIDs []int64, texts []string) (bool, error) {
	if len(chunkIDs) == 0 {
		return false, nil
	}
	if len(chunkIDs) != len(texts) {
		return false, fmt.Errorf("bm25: %d chunk ids for %d texts", len(chunkIDs), len(texts))
	}

	m := &model{
		ChunkIDs:  chunkIDs,
		TermFreqs: make([]map[string]int, len(texts)),
		DocFreqs:  make(map[string]int),
		DocLens:   make([]int, len(texts)),
	}

	totalLen := 0
	for d, text := range texts {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		tokens := Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			m.DocFreqs[term]++
		}
		m.TermFreqs[d] = tf
		m.DocLens[d] = len(tokens)
		totalLen += len(tokens)
	}
	m.AvgDocLen = float64(totalLen) / float64(len(texts))

	// A vocabulary-free corpus (all punctuation, say) can answer no query;
	// report the index as absent instead of persisting a useless model
	if len(m.DocFreqs) == 0 {
		if err := i.Delete(ctx, projectID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := i.save(projectID, m); err != nil {
		return false, err
	}

	logger.Debug("bm25: indexed %d chunks for project %d (%d terms)", len(chunkIDs), projectID, len(m.DocFreqs))
	return true, nil
}

// Search scores the query against the project's index. A missing index
// reports ErrSparseIndexUnavailable so callers can degrade explicitly;
// a query with no usable tokens yields an empty result. Only strictly
// positive scores are returned, best first.
func (i *Index) Search(ctx context.Context, projectID int64, query string, limit int) ([]driven.SparseHit, error) {
	m, err := i.load(projectID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSparseIndexUnavailable
		}
		return nil, err
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	n := float64(len(m.ChunkIDs))
	hits := make([]driven.SparseHit, 0, limit)
	for d, tf := range m.TermFreqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score := 0.0
		norm := k1 * (1 - b + b*float64(m.DocLens[d])/m.AvgDocLen)
		for _, term := range tokens {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			df := float64(m.DocFreqs[term])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			score += idf * f * (k1 + 1) / (f + norm)
		}
		if score > 0 {
			hits = append(hits, driven.SparseHit{ChunkID: m.ChunkIDs[d], Score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Exists reports whether a persisted index is present for the project.
func (i *Index) Exists(_ context.Context, projectID int64) bool {
	_, err := os.Stat(i.path(projectID))
	return err == nil
}

// Delete removes the project's persisted index.
func (i *Index) Delete(_ context.Context, projectID int64) error {
	if err := os.Remove(i.path(projectID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("bm25: delete index: %w", err)
	}
	return nil
}

func (i *Index) save(projectID int64, m *model) error {
	if err := os.MkdirAll(i.dataDir, 0o755); err != nil {
		return fmt.Errorf("bm25: create data dir: %w", err)
	}

	// Write to a temp file and rename so readers never see a torn index
	tmp, err := os.CreateTemp(i.dataDir, "bm25_*.tmp")
	if err != nil {
		return fmt.Errorf("bm25: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(m); err != nil {
		tmp.Close()
		return fmt.Errorf("bm25: encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("bm25: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), i.path(projectID)); err != nil {
		return fmt.Errorf("bm25: replace index: %w", err)
	}
	return nil
}

func (i *Index) load(projectID int64) (*model, error) {
	f, err := os.Open(i.path(projectID))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("bm25: decode index: %w", err)
	}
	return &m, nil
}
