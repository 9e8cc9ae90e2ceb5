// Package cli provides the command line interface for Quarry.
// Commands talk to the core services through the driving ports; the
// services themselves are wired up once at startup from the config file.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/quarrylabs/quarry-cli/internal/adapters/driven/config/file"
	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/embedding/ollama"
	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/embedding/openai"
	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/fetch/browser"
	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/fetch/httpfetch"
	scrapefile "github.com/quarrylabs/quarry-cli/internal/adapters/driven/scrapecache/file"
	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/storage/sqlite"
	"github.com/quarrylabs/quarry-cli/internal/adapters/driven/vector/qdrant"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
	"github.com/quarrylabs/quarry-cli/internal/core/services"
	"github.com/quarrylabs/quarry-cli/internal/logger"
	"github.com/quarrylabs/quarry-cli/internal/sparse/bm25"
)

// version is set at build time via -ldflags.
var version = "dev"

// verbose is bound to the global --verbose flag.
var verbose bool

// Services and stores used by the commands. They are nil until
// initServices runs; commands must nil-check before use.
var (
	retrievalService driving.RetrievalService
	ingestService    driving.IngestService
	crawlService     driving.CrawlService
	settingsService  *services.SettingsService
	projectStore     driven.ProjectStore
	assetStore       driven.AssetStore
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Quarry - hybrid search over your documentation",
	Long: `Quarry indexes local files and scraped documentation sites into
project-scoped dense and sparse indexes, and answers queries with
hybrid (semantic + BM25) retrieval.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute wires the services and runs the root command. Wiring failures
// are reported as a warning rather than aborting, so commands that need
// no backing services (version, help) still work; everything else fails
// with a "not configured" error.
func Execute() error {
	if err := initServices(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return rootCmd.Execute()
}

// defaultDataDir is where the metadata database, sparse index files and
// scrape checkpoints live.
func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".quarry", "data"), nil
}

// initServices builds the driven adapters from configuration and wires
// the core services. The embedder is optional: without one, ingestion
// still stores and sparse-indexes chunks and search reports that
// embeddings are unavailable.
func initServices() error {
	config, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService = services.NewSettingsService(config)

	dataDir, err := defaultDataDir()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	projectStore = store.Projects()
	assetStore = store.Assets()

	embedder, err := buildEmbedder(settingsService)
	if err != nil {
		return fmt.Errorf("configuring embedder: %w", err)
	}

	var vectors driven.VectorStore
	if embedder != nil {
		vectors, err = qdrant.NewStore(qdrant.Config{
			Host:   settingsService.QdrantHost(),
			Port:   settingsService.QdrantPort(),
			APIKey: settingsService.QdrantAPIKey(),
			UseTLS: settingsService.QdrantUseTLS(),
		})
		if err != nil {
			return fmt.Errorf("connecting to qdrant: %w", err)
		}
	}

	sparse := bm25.New(dataDir)
	states := scrapefile.New(dataDir)

	var fetcher driven.Fetcher = httpfetch.New(httpfetch.Config{
		UserAgent: settingsService.CrawlUserAgent(),
		Timeout:   time.Duration(settingsService.CrawlTimeout()) * time.Second,
	})
	if settingsService.CrawlBrowserMode() {
		fetcher, err = browser.New(browser.Config{
			UserAgent: settingsService.CrawlUserAgent(),
			Probe:     fetcher,
		})
		if err != nil {
			return fmt.Errorf("starting browser fetcher: %w", err)
		}
	}

	ingestService = services.NewIngestService(
		store.Chunks(), assetStore, vectors, embedder, sparse, settingsService)
	retrievalService = services.NewRetrievalService(
		store.Chunks(), vectors, embedder, sparse, settingsService)
	crawlService = services.NewCrawlService(
		fetcher, states, store.Chunks(), assetStore, ingestService, settingsService, dataDir)

	return nil
}

// buildEmbedder creates the configured embedding backend, or nil when
// no provider is configured.
func buildEmbedder(settings *services.SettingsService) (driven.EmbeddingService, error) {
	switch provider := settings.EmbeddingProvider(); provider {
	case "":
		return nil, nil
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  settings.EmbeddingAPIKey(),
			BaseURL: settings.EmbeddingBaseURL(),
			Model:   settings.EmbeddingModel(),
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: settings.EmbeddingBaseURL(),
			Model:   settings.EmbeddingModel(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
