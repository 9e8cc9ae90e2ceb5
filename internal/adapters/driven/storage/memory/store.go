// Package memory provides in-memory implementations of the storage
// ports. Used in tests and as a fallback when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// Store holds projects, assets and chunks in memory. The port
// implementations share one lock and one id space each.
type Store struct {
	mu sync.RWMutex

	projects map[int64]*domain.Project
	assets   map[int64]*domain.Asset
	chunks   map[int64]*domain.Chunk

	nextProjectID int64
	nextAssetID   int64
	nextChunkID   int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		projects: make(map[int64]*domain.Project),
		assets:   make(map[int64]*domain.Asset),
		chunks:   make(map[int64]*domain.Chunk),
	}
}

// Projects returns the project store view.
func (s *Store) Projects() driven.ProjectStore { return &projectStore{s} }

// Assets returns the asset store view.
func (s *Store) Assets() driven.AssetStore { return &assetStore{s} }

// Chunks returns the chunk store view.
func (s *Store) Chunks() driven.ChunkStore { return &chunkStore{s} }

type projectStore struct{ s *Store }

var _ driven.ProjectStore = (*projectStore)(nil)

func (p *projectStore) GetOrCreate(_ context.Context, name string) (*domain.Project, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	for _, pr := range p.s.projects {
		if pr.Name == name {
			cp := *pr
			return &cp, nil
		}
	}
	p.s.nextProjectID++
	pr := &domain.Project{ID: p.s.nextProjectID, Name: name, CreatedAt: time.Now()}
	p.s.projects[pr.ID] = pr
	cp := *pr
	return &cp, nil
}

func (p *projectStore) Get(_ context.Context, id int64) (*domain.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	pr, ok := p.s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *pr
	return &cp, nil
}

func (p *projectStore) List(_ context.Context) ([]*domain.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := make([]*domain.Project, 0, len(p.s.projects))
	for _, pr := range p.s.projects {
		cp := *pr
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *projectStore) Delete(_ context.Context, id int64) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(p.s.projects, id)
	for aid, a := range p.s.assets {
		if a.ProjectID == id {
			delete(p.s.assets, aid)
		}
	}
	for cid, c := range p.s.chunks {
		if c.ProjectID == id {
			delete(p.s.chunks, cid)
		}
	}
	return nil
}

type assetStore struct{ s *Store }

var _ driven.AssetStore = (*assetStore)(nil)

func (a *assetStore) Insert(_ context.Context, asset *domain.Asset) (int64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	a.s.nextAssetID++
	cp := *asset
	cp.ID = a.s.nextAssetID
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	a.s.assets[cp.ID] = &cp
	return cp.ID, nil
}

func (a *assetStore) Get(_ context.Context, id int64) (*domain.Asset, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	as, ok := a.s.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *as
	return &cp, nil
}

func (a *assetStore) GetByName(_ context.Context, projectID int64, name string) (*domain.Asset, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	for _, as := range a.s.assets {
		if as.ProjectID == projectID && as.Name == name {
			cp := *as
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (a *assetStore) ListByProject(_ context.Context, projectID int64) ([]*domain.Asset, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	var out []*domain.Asset
	for _, as := range a.s.assets {
		if as.ProjectID == projectID {
			cp := *as
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *assetStore) Delete(_ context.Context, id int64) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if _, ok := a.s.assets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(a.s.assets, id)
	for cid, c := range a.s.chunks {
		if c.AssetID == id {
			delete(a.s.chunks, cid)
		}
	}
	return nil
}

type chunkStore struct{ s *Store }

var _ driven.ChunkStore = (*chunkStore)(nil)

func (c *chunkStore) InsertChunks(_ context.Context, chunks []*domain.Chunk) ([]int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	ids := make([]int64, len(chunks))
	for i, ch := range chunks {
		c.s.nextChunkID++
		cp := *ch
		cp.ID = c.s.nextChunkID
		cp.Metadata = ch.Metadata.Clone()
		c.s.chunks[cp.ID] = &cp
		ids[i] = cp.ID
		ch.ID = cp.ID
	}
	return ids, nil
}

func (c *chunkStore) ChunksByIDs(_ context.Context, ids []int64) ([]*domain.Chunk, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	out := make([]*domain.Chunk, 0, len(ids))
	for _, id := range ids {
		if ch, ok := c.s.chunks[id]; ok {
			cp := *ch
			cp.Metadata = ch.Metadata.Clone()
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *chunkStore) ListByProject(_ context.Context, projectID int64, offset, limit int) ([]*domain.Chunk, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var all []*domain.Chunk
	for _, ch := range c.s.chunks {
		if ch.ProjectID == projectID {
			cp := *ch
			cp.Metadata = ch.Metadata.Clone()
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (c *chunkStore) CountByProject(_ context.Context, projectID int64) (int64, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	var n int64
	for _, ch := range c.s.chunks {
		if ch.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (c *chunkStore) DeleteByAsset(_ context.Context, assetID int64) ([]int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var ids []int64
	for cid, ch := range c.s.chunks {
		if ch.AssetID == assetID {
			ids = append(ids, cid)
			delete(c.s.chunks, cid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (c *chunkStore) DeleteByProject(_ context.Context, projectID int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for cid, ch := range c.s.chunks {
		if ch.ProjectID == projectID {
			delete(c.s.chunks, cid)
		}
	}
	return nil
}
