package services

import (
	"context"
	"errors"

	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// fakeConfig is an in-memory ConfigStore for service tests.
type fakeConfig struct {
	data map[string]any
}

var _ driven.ConfigStore = (*fakeConfig)(nil)

func newFakeConfig() *fakeConfig {
	return &fakeConfig{data: make(map[string]any)}
}

func (c *fakeConfig) Get(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *fakeConfig) GetString(key string) string {
	if v, ok := c.data[key].(string); ok {
		return v
	}
	return ""
}

func (c *fakeConfig) GetInt(key string) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (c *fakeConfig) GetFloat(key string) float64 {
	switch v := c.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (c *fakeConfig) GetBool(key string) bool {
	if v, ok := c.data[key].(bool); ok {
		return v
	}
	return false
}

func (c *fakeConfig) Set(key string, value any) error {
	c.data[key] = value
	return nil
}

func (c *fakeConfig) Save() error { return nil }
func (c *fakeConfig) Load() error { return nil }
func (c *fakeConfig) Path() string { return "" }

// fakeEmbedder returns vectors from a lookup function and records calls.
type fakeEmbedder struct {
	dims     int
	vecFor   func(text string) []float32
	batches  [][]string
	purposes []driven.EmbedPurpose
	err      error
	empty    bool
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string, purpose driven.EmbedPurpose) ([][]float32, error) {
	e.batches = append(e.batches, texts)
	e.purposes = append(e.purposes, purpose)
	if e.err != nil {
		return nil, e.err
	}
	if e.empty {
		return [][]float32{nil}, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vecFor(t)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int                { return e.dims }
func (e *fakeEmbedder) ModelName() string              { return "fake-embedder" }
func (e *fakeEmbedder) Ping(_ context.Context) error   { return nil }
func (e *fakeEmbedder) Close() error                   { return nil }

// embeddedCount returns the total number of texts embedded so far.
func (e *fakeEmbedder) embeddedCount() int {
	n := 0
	for _, b := range e.batches {
		n += len(b)
	}
	return n
}

// fakeFetcher serves canned responses keyed by URL; everything else 404s.
type fakeFetcher struct {
	pages map[string]*driven.FetchResult
}

var _ driven.Fetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) Get(_ context.Context, url string) (*driven.FetchResult, error) {
	if res, ok := f.pages[url]; ok {
		return res, nil
	}
	return &driven.FetchResult{URL: url, StatusCode: 404}, nil
}

func (f *fakeFetcher) Head(_ context.Context, url string) (*driven.FetchResult, error) {
	if res, ok := f.pages[url]; ok {
		return &driven.FetchResult{URL: url, StatusCode: res.StatusCode, ContentType: res.ContentType}, nil
	}
	return &driven.FetchResult{URL: url, StatusCode: 404}, nil
}

// fakeSparse serves canned sparse hits.
type fakeSparse struct {
	hits    []driven.SparseHit
	err     error
	present bool
}

var _ driven.SparseIndex = (*fakeSparse)(nil)

var errFake = errors.New("backend unavailable")

func (s *fakeSparse) Build(_ context.Context, _ int64, chunkIDs []int64, _ []string) (bool, error) {
	s.present = len(chunkIDs) > 0
	return s.present, nil
}

func (s *fakeSparse) Search(_ context.Context, _ int64, _ string, limit int) ([]driven.SparseHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && len(s.hits) > limit {
		return s.hits[:limit], nil
	}
	return s.hits, nil
}

func (s *fakeSparse) Exists(_ context.Context, _ int64) bool { return s.present }

func (s *fakeSparse) Delete(_ context.Context, _ int64) error {
	s.present = false
	return nil
}
