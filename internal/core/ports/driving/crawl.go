package driving

import (
	"context"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// CrawlOptions controls a scrape job.
type CrawlOptions struct {
	// MaxPages caps the number of pages discovered and fetched.
	// 0 uses the configured default.
	MaxPages int

	// IgnoreRobots skips robots.txt checks when set.
	IgnoreRobots bool

	// DeferEmbedding stores chunks without embedding them during the
	// crawl; pending chunk ids are flushed on the next run for the same
	// base URL.
	DeferEmbedding bool

	// Reset discards the checkpoint for the base URL and starts over.
	// Without it, a rerun continues from where the previous job stopped.
	Reset bool

	// Concurrency is the number of page fetch workers.
	// 0 uses the configured default; browser mode always runs one worker.
	Concurrency int
}

// CrawlResult reports the outcome of a scrape job.
type CrawlResult struct {
	// State is the final persisted job state.
	State *domain.ScrapeState

	// PagesProcessed is the number of pages ingested in this run.
	PagesProcessed int

	// PagesSkipped is the number of pages rejected in this run.
	PagesSkipped int
}

// ProbeResult is the outcome of a single-page extraction probe.
type ProbeResult struct {
	// URL is the probed URL.
	URL string

	// Title is the extracted page title.
	Title string

	// Description is the extracted meta description.
	Description string

	// Text is the extracted main content.
	Text string

	// Links are the beneficial same-site links found on the page.
	Links []string
}

// CrawlService discovers and ingests documentation sites.
type CrawlService interface {
	// Scrape crawls a base URL into the project: discovers pages
	// (sitemap first, BFS fallback), fetches and extracts each one,
	// and hands the content to ingestion. Checkpoints after every page;
	// rerunning the same base URL continues from the checkpoint and only
	// touches pages not yet processed or skipped, unless opts.Reset
	// discards it.
	Scrape(ctx context.Context, projectID int64, baseURL string, opts CrawlOptions) (*CrawlResult, error)

	// Cancel requests cancellation of a running job for the base URL.
	// The job finishes its current page and terminates CANCELLED with
	// partial results preserved.
	Cancel(ctx context.Context, baseURL string) error

	// Status returns the persisted state of a job.
	Status(ctx context.Context, baseURL string) (*domain.ScrapeState, error)

	// Probe fetches and extracts a single page without ingesting it,
	// for debugging extraction quality.
	Probe(ctx context.Context, url string) (*ProbeResult, error)
}
