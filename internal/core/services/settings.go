package services

import (
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyEmbeddingProvider  = "embedding.provider"
	KeyEmbeddingModel     = "embedding.model"
	KeyEmbeddingAPIKey    = "embedding.api_key"
	KeyEmbeddingBaseURL   = "embedding.base_url"
	KeyEmbeddingBatchSize = "embedding.batch_size"

	KeySearchHybrid = "search.hybrid"
	KeySearchAlpha  = "search.alpha"
	KeySearchLimit  = "search.limit"

	KeyChunkSize    = "chunking.size"
	KeyChunkOverlap = "chunking.overlap"

	KeyCrawlMaxPages    = "crawl.max_pages"
	KeyCrawlRateLimit   = "crawl.rate_limit"
	KeyCrawlUserAgent   = "crawl.user_agent"
	KeyCrawlTimeout     = "crawl.timeout_seconds"
	KeyCrawlBrowserMode = "crawl.browser_mode"
	KeyCrawlConcurrency = "crawl.concurrency"

	KeyQdrantHost   = "qdrant.host"
	KeyQdrantPort   = "qdrant.port"
	KeyQdrantAPIKey = "qdrant.api_key"
	KeyQdrantUseTLS = "qdrant.use_tls"
)

// Defaults applied when a key is absent from the config file.
const (
	DefaultEmbeddingBatchSize = 50
	DefaultSearchAlpha        = 0.6
	DefaultSearchLimit        = 10
	DefaultChunkSize          = 100
	DefaultChunkOverlap       = 20
	DefaultCrawlMaxPages      = 100
	DefaultCrawlRateLimit     = 1.0
	DefaultCrawlTimeout       = 30
	DefaultCrawlUserAgent     = "quarry-cli/1.0 (+https://github.com/quarrylabs/quarry-cli)"
	DefaultCrawlConcurrency   = 1
	DefaultQdrantPort         = 6334
)

// SettingsService reads typed settings over a ConfigStore, applying
// defaults for missing keys.
type SettingsService struct {
	store driven.ConfigStore
}

// NewSettingsService creates a settings service over the given store.
func NewSettingsService(store driven.ConfigStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) intOr(key string, def int) int {
	if _, ok := s.store.Get(key); !ok {
		return def
	}
	return s.store.GetInt(key)
}

func (s *SettingsService) floatOr(key string, def float64) float64 {
	if _, ok := s.store.Get(key); !ok {
		return def
	}
	return s.store.GetFloat(key)
}

func (s *SettingsService) boolOr(key string, def bool) bool {
	if _, ok := s.store.Get(key); !ok {
		return def
	}
	return s.store.GetBool(key)
}

func (s *SettingsService) stringOr(key, def string) string {
	if v := s.store.GetString(key); v != "" {
		return v
	}
	return def
}

// EmbeddingProvider returns the configured embedding backend name.
// Empty means embeddings are not configured.
func (s *SettingsService) EmbeddingProvider() string {
	return s.store.GetString(KeyEmbeddingProvider)
}

// EmbeddingModel returns the configured embedding model name.
func (s *SettingsService) EmbeddingModel() string {
	return s.store.GetString(KeyEmbeddingModel)
}

// EmbeddingAPIKey returns the embedding provider API key.
func (s *SettingsService) EmbeddingAPIKey() string {
	return s.store.GetString(KeyEmbeddingAPIKey)
}

// EmbeddingBaseURL returns the embedding endpoint override.
func (s *SettingsService) EmbeddingBaseURL() string {
	return s.store.GetString(KeyEmbeddingBaseURL)
}

// EmbeddingBatchSize returns how many texts to embed per request.
func (s *SettingsService) EmbeddingBatchSize() int {
	if v := s.intOr(KeyEmbeddingBatchSize, DefaultEmbeddingBatchSize); v > 0 {
		return v
	}
	return DefaultEmbeddingBatchSize
}

// SearchHybrid reports whether hybrid fusion is enabled by default.
func (s *SettingsService) SearchHybrid() bool {
	return s.boolOr(KeySearchHybrid, true)
}

// SearchAlpha returns the dense weight for hybrid fusion, clamped to [0, 1].
func (s *SettingsService) SearchAlpha() float64 {
	a := s.floatOr(KeySearchAlpha, DefaultSearchAlpha)
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// SearchLimit returns the default result count.
func (s *SettingsService) SearchLimit() int {
	if v := s.intOr(KeySearchLimit, DefaultSearchLimit); v > 0 {
		return v
	}
	return DefaultSearchLimit
}

// ChunkSize returns the chunk size in bytes.
func (s *SettingsService) ChunkSize() int {
	if v := s.intOr(KeyChunkSize, DefaultChunkSize); v > 0 {
		return v
	}
	return DefaultChunkSize
}

// ChunkOverlap returns the overlap between chunks in bytes.
func (s *SettingsService) ChunkOverlap() int {
	if v := s.intOr(KeyChunkOverlap, DefaultChunkOverlap); v >= 0 {
		return v
	}
	return DefaultChunkOverlap
}

// CrawlMaxPages returns the page cap for scrape jobs.
func (s *SettingsService) CrawlMaxPages() int {
	if v := s.intOr(KeyCrawlMaxPages, DefaultCrawlMaxPages); v > 0 {
		return v
	}
	return DefaultCrawlMaxPages
}

// CrawlRateLimit returns the crawl request rate in requests per second.
func (s *SettingsService) CrawlRateLimit() float64 {
	if v := s.floatOr(KeyCrawlRateLimit, DefaultCrawlRateLimit); v > 0 {
		return v
	}
	return DefaultCrawlRateLimit
}

// CrawlUserAgent returns the user agent sent with crawl requests.
func (s *SettingsService) CrawlUserAgent() string {
	return s.stringOr(KeyCrawlUserAgent, DefaultCrawlUserAgent)
}

// CrawlTimeout returns the per-request timeout in seconds.
func (s *SettingsService) CrawlTimeout() int {
	if v := s.intOr(KeyCrawlTimeout, DefaultCrawlTimeout); v > 0 {
		return v
	}
	return DefaultCrawlTimeout
}

// CrawlConcurrency returns the number of concurrent page fetch workers.
// Browser mode always reports one worker: rendering shares a single
// headless browser.
func (s *SettingsService) CrawlConcurrency() int {
	if s.CrawlBrowserMode() {
		return 1
	}
	if v := s.intOr(KeyCrawlConcurrency, DefaultCrawlConcurrency); v > 0 {
		return v
	}
	return DefaultCrawlConcurrency
}

// CrawlBrowserMode reports whether pages are rendered in a headless
// browser before extraction. Off by default; plain HTTP covers most
// documentation sites.
func (s *SettingsService) CrawlBrowserMode() bool {
	return s.boolOr(KeyCrawlBrowserMode, false)
}

// QdrantHost returns the Qdrant host. Empty means localhost.
func (s *SettingsService) QdrantHost() string {
	return s.stringOr(KeyQdrantHost, "localhost")
}

// QdrantPort returns the Qdrant gRPC port.
func (s *SettingsService) QdrantPort() int {
	if v := s.intOr(KeyQdrantPort, DefaultQdrantPort); v > 0 {
		return v
	}
	return DefaultQdrantPort
}

// QdrantAPIKey returns the Qdrant API key, if any.
func (s *SettingsService) QdrantAPIKey() string {
	return s.store.GetString(KeyQdrantAPIKey)
}

// QdrantUseTLS reports whether to connect to Qdrant over TLS.
func (s *SettingsService) QdrantUseTLS() bool {
	return s.boolOr(KeyQdrantUseTLS, false)
}
