package cli

import (
	"context"
	"os"

	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/fetch/httpfetch"
	scrapefile "github.com/quarrylabs/quarry-cli/internal/adapters/driven/scrapecache/file"
	storagemem "github.com/quarrylabs/quarry-cli/internal/adapters/driven/storage/memory"
	vectormem "github.com/quarrylabs/quarry-cli/internal/adapters/driven/vector/memory"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/core/services"
	"github.com/quarrylabs/quarry-cli/internal/sparse/bm25"
)

// stubEmbedder returns a fixed unit vector for every text.
type stubEmbedder struct{}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string, _ driven.EmbedPurpose) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int              { return 3 }
func (stubEmbedder) ModelName() string            { return "stub-embedder" }
func (stubEmbedder) Ping(_ context.Context) error { return nil }
func (stubEmbedder) Close() error                 { return nil }

// memoryConfig is a minimal in-memory ConfigStore for tests.
type memoryConfig struct {
	data map[string]any
}

var _ driven.ConfigStore = (*memoryConfig)(nil)

func (c *memoryConfig) Get(key string) (any, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *memoryConfig) GetString(key string) string {
	v, _ := c.data[key].(string)
	return v
}

func (c *memoryConfig) GetInt(key string) int {
	v, _ := c.data[key].(int)
	return v
}

func (c *memoryConfig) GetFloat(key string) float64 {
	v, _ := c.data[key].(float64)
	return v
}

func (c *memoryConfig) GetBool(key string) bool {
	v, _ := c.data[key].(bool)
	return v
}

func (c *memoryConfig) Set(key string, value any) error {
	c.data[key] = value
	return nil
}

func (c *memoryConfig) Save() error  { return nil }
func (c *memoryConfig) Load() error  { return nil }
func (c *memoryConfig) Path() string { return "" }

// setupTestServices replaces the package-level services with in-memory
// implementations. The returned cleanup restores the previous wiring and
// removes the temporary data directory.
func setupTestServices() func() {
	oldRetrieval := retrievalService
	oldIngest := ingestService
	oldCrawl := crawlService
	oldSettings := settingsService
	oldProjects := projectStore
	oldAssets := assetStore

	dataDir, err := os.MkdirTemp("", "quarry-cli-test")
	if err != nil {
		panic(err)
	}

	store := storagemem.New()
	vectors := vectormem.New()
	embedder := stubEmbedder{}
	sparse := bm25.New(dataDir)
	states := scrapefile.New(dataDir)
	fetcher := httpfetch.New(httpfetch.Config{})
	settingsService = services.NewSettingsService(&memoryConfig{data: make(map[string]any)})

	projectStore = store.Projects()
	assetStore = store.Assets()
	ingestService = services.NewIngestService(
		store.Chunks(), assetStore, vectors, embedder, sparse, settingsService)
	retrievalService = services.NewRetrievalService(
		store.Chunks(), vectors, embedder, sparse, settingsService)
	crawlService = services.NewCrawlService(
		fetcher, states, store.Chunks(), assetStore, ingestService, settingsService, dataDir)

	return func() {
		retrievalService = oldRetrieval
		ingestService = oldIngest
		crawlService = oldCrawl
		settingsService = oldSettings
		projectStore = oldProjects
		assetStore = oldAssets
		os.RemoveAll(dataDir) //nolint:errcheck
	}
}
