package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
)

var (
	scrapeProject        string
	scrapeMaxPages       int
	scrapeConcurrency    int
	scrapeReset          bool
	scrapeIgnoreRobots   bool
	scrapeDeferEmbedding bool
	scrapeStatusJSON     bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [base-url]",
	Short: "Scrape a documentation site into a project",
	Long: `Discovers pages under a base URL (sitemap first, link crawl as
fallback), extracts the main content of each page, and ingests it into
the project. The job checkpoints after every page, so it can be
cancelled with 'quarry cancel' and continued by running the same
command again; --reset discards the checkpoint and starts over.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

var scrapeStatusCmd = &cobra.Command{
	Use:   "status [base-url]",
	Short: "Show the checkpoint of a scrape job",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrapeStatus,
}

var scrapeProbeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Fetch and extract a single page without ingesting it",
	Long: `Fetches one URL and prints the extracted title, description, text
and links. Useful for checking extraction quality before scraping a
whole site.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrapeProbe,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeProject, "project", "p", "default", "project to scrape into")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "page cap for this job (0 = configured default)")
	scrapeCmd.Flags().IntVar(&scrapeConcurrency, "concurrency", 0, "page fetch workers (0 = configured default)")
	scrapeCmd.Flags().BoolVar(&scrapeReset, "reset", false, "discard the checkpoint for this base URL and start over")
	scrapeCmd.Flags().BoolVar(&scrapeIgnoreRobots, "ignore-robots", false, "skip robots.txt checks")
	scrapeCmd.Flags().BoolVar(&scrapeDeferEmbedding, "defer-embedding", false, "store chunks without embedding; flushed on the next run")
	scrapeStatusCmd.Flags().BoolVar(&scrapeStatusJSON, "json", false, "output status as JSON")

	scrapeCmd.AddCommand(scrapeStatusCmd)
	scrapeCmd.AddCommand(scrapeProbeCmd)
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	baseURL := args[0]

	if crawlService == nil {
		return errors.New("crawl service not configured")
	}
	if projectStore == nil {
		return errors.New("project store not configured")
	}

	ctx := cmd.Context()
	project, err := projectStore.GetOrCreate(ctx, scrapeProject)
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}

	if scrapeReset {
		cmd.Printf("Resetting and scraping %s...\n", baseURL)
	} else {
		cmd.Printf("Scraping %s...\n", baseURL)
	}

	result, err := crawlService.Scrape(ctx, project.ID, baseURL, driving.CrawlOptions{
		MaxPages:       scrapeMaxPages,
		Concurrency:    scrapeConcurrency,
		IgnoreRobots:   scrapeIgnoreRobots,
		DeferEmbedding: scrapeDeferEmbedding,
		Reset:          scrapeReset,
	})
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	cmd.Printf("Processed %d pages, skipped %d.\n", result.PagesProcessed, result.PagesSkipped)
	switch result.State.Status {
	case domain.ScrapeStatusCancelled:
		cmd.Printf("Job cancelled with %d pages remaining; run the same scrape again to continue.\n",
			len(result.State.RemainingURLs()))
	case domain.ScrapeStatusCompleted:
		if scrapeDeferEmbedding && len(result.State.PendingEmbeddingChunkIDs) > 0 {
			cmd.Printf("%d chunks await embedding; run the same scrape again to flush them.\n",
				len(result.State.PendingEmbeddingChunkIDs))
		}
	}
	return nil
}

func runScrapeStatus(cmd *cobra.Command, args []string) error {
	if crawlService == nil {
		return errors.New("crawl service not configured")
	}

	state, err := crawlService.Status(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Printf("No scrape job found for %s\n", args[0])
			return nil
		}
		return fmt.Errorf("reading scrape status: %w", err)
	}

	if scrapeStatusJSON {
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Scrape job %s\n\n", state.JobID)
	cmd.Printf("  Base URL:   %s\n", state.BaseURL)
	cmd.Printf("  Status:     %s\n", state.Status)
	cmd.Printf("  Discovered: %d pages\n", len(state.DiscoveredURLs))
	cmd.Printf("  Processed:  %d pages\n", len(state.ProcessedURLs))
	cmd.Printf("  Skipped:    %d pages\n", len(state.SkippedURLs))
	cmd.Printf("  Remaining:  %d pages\n", len(state.RemainingURLs()))
	if n := len(state.PendingEmbeddingChunkIDs); n > 0 {
		cmd.Printf("  Pending embeddings: %d chunks\n", n)
	}
	for _, sk := range state.SkippedURLs {
		cmd.Printf("    skipped %s: %s\n", sk.URL, sk.Reason)
	}
	return nil
}

func runScrapeProbe(cmd *cobra.Command, args []string) error {
	if crawlService == nil {
		return errors.New("crawl service not configured")
	}

	probe, err := crawlService.Probe(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	cmd.Printf("URL:         %s\n", probe.URL)
	cmd.Printf("Title:       %s\n", probe.Title)
	cmd.Printf("Description: %s\n", probe.Description)
	cmd.Printf("Links:       %d\n", len(probe.Links))
	cmd.Printf("Text:        %d bytes\n\n", len(probe.Text))
	cmd.Println(snippet(probe.Text, 500))
	return nil
}
