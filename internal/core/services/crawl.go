package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/quarrylabs/quarry-cli/internal/chunker"
	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
	"github.com/quarrylabs/quarry-cli/internal/crawler"
	"github.com/quarrylabs/quarry-cli/internal/extract"
	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// Ensure CrawlService implements the interface.
var _ driving.CrawlService = (*CrawlService)(nil)

// minPageContent is the extracted-text threshold below which a page is
// skipped as too thin to index.
const minPageContent = 50

// CrawlService scrapes documentation sites into a project.
type CrawlService struct {
	fetcher  driven.Fetcher
	states   driven.ScrapeStateStore
	chunks   driven.ChunkStore
	assets   driven.AssetStore
	ingest   driving.IngestService
	settings *SettingsService
	dataDir  string
}

// NewCrawlService creates a crawl service. dataDir holds cancel flags
// and is shared with the scrape state store.
func NewCrawlService(
	fetcher driven.Fetcher,
	states driven.ScrapeStateStore,
	chunks driven.ChunkStore,
	assets driven.AssetStore,
	ingest driving.IngestService,
	settings *SettingsService,
	dataDir string,
) *CrawlService {
	return &CrawlService{
		fetcher:  fetcher,
		states:   states,
		chunks:   chunks,
		assets:   assets,
		ingest:   ingest,
		settings: settings,
		dataDir:  dataDir,
	}
}

// Scrape crawls a base URL into the project. The job checkpoints after
// every page; cancellation (context or flag file) ends the run cleanly
// with partial results preserved. Rerunning the same base URL continues
// from the checkpoint and only touches pages not yet processed or
// skipped; opts.Reset deletes the checkpoint and starts over.
func (s *CrawlService) Scrape(ctx context.Context, projectID int64, baseURL string, opts driving.CrawlOptions) (*driving.CrawlResult, error) {
	base, err := crawler.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = s.settings.CrawlMaxPages()
	}

	// 1. Cheap accessibility probe before committing to a crawl
	if err := s.checkAccessible(ctx, base); err != nil {
		return nil, err
	}

	// 2. Register the asset for this base URL
	assetID, err := s.ensureAsset(ctx, projectID, base)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Limit(s.settings.CrawlRateLimit()), 1)
	robots := crawler.NewRobots(s.fetcher, s.settings.CrawlUserAgent())

	// 3. Work out the page list: continue from an existing checkpoint,
	// or discover when there is none (or a reset threw it away)
	if opts.Reset {
		if err := s.states.Delete(ctx, base); err != nil {
			return nil, fmt.Errorf("reset checkpoint: %w", err)
		}
	}
	pending, resumed, err := s.resume(ctx, projectID, base)
	if err != nil {
		return nil, err
	}
	if !resumed {
		pending, err = s.discover(ctx, projectID, assetID, base, maxPages, opts.IgnoreRobots, limiter, robots)
		if err != nil {
			return nil, err
		}
	}

	// 4. Fetch, extract and ingest page by page
	monitor, err := crawler.NewMonitor(s.dataDir, base)
	if err != nil {
		return nil, err
	}
	defer monitor.Close()

	return s.processPages(ctx, projectID, assetID, base, pending, opts, limiter, robots, monitor)
}

// checkAccessible probes the base URL with a HEAD request. Servers that
// reject HEAD outright still pass; only hard failures abort the job.
func (s *CrawlService) checkAccessible(ctx context.Context, base string) error {
	res, err := s.fetcher.Head(ctx, base)
	if err != nil {
		return fmt.Errorf("%w: %s unreachable: %v", domain.ErrDiscoveryFailed, base, err)
	}
	if res.StatusCode >= 400 && res.StatusCode != 403 && res.StatusCode != 405 {
		return fmt.Errorf("%w: %s answered %d", domain.ErrDiscoveryFailed, base, res.StatusCode)
	}
	return nil
}

func (s *CrawlService) ensureAsset(ctx context.Context, projectID int64, base string) (int64, error) {
	existing, err := s.assets.GetByName(ctx, projectID, base)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("look up asset: %w", err)
	}
	return s.assets.Insert(ctx, &domain.Asset{
		ProjectID: projectID,
		Type:      domain.AssetTypeURLScrape,
		Name:      base,
	})
}

// discover runs page discovery and checkpoints the result.
func (s *CrawlService) discover(
	ctx context.Context, projectID, assetID int64, base string, maxPages int,
	ignoreRobots bool, limiter *rate.Limiter, robots *crawler.Robots,
) ([]string, error) {
	if _, err := s.states.Update(ctx, base, func(st *domain.ScrapeState) error {
		st.JobID = uuid.NewString()
		st.BaseURL = base
		st.ProjectID = projectID
		st.AssetID = assetID
		st.DiscoveredURLs = nil
		st.ProcessedURLs = nil
		st.SkippedURLs = nil
		st.PendingEmbeddingChunkIDs = nil
		st.Status = domain.ScrapeStatusDiscovering
		return nil
	}); err != nil {
		return nil, fmt.Errorf("checkpoint discovery: %w", err)
	}

	d := crawler.NewDiscoverer(s.fetcher, limiter, robots, ignoreRobots)
	pages, err := d.Discover(ctx, base, maxPages)
	if err != nil {
		s.markFailed(ctx, base)
		return nil, err
	}

	if _, err := s.states.Update(ctx, base, func(st *domain.ScrapeState) error {
		st.DiscoveredURLs = pages
		st.Status = domain.ScrapeStatusScraping
		return nil
	}); err != nil {
		return nil, fmt.Errorf("checkpoint pages: %w", err)
	}
	return pages, nil
}

// resume loads the checkpoint, flushes any deferred embeddings, and
// returns the pages still to process. A missing checkpoint, or one that
// never finished discovery, reports resumed false so the caller
// discovers afresh.
func (s *CrawlService) resume(ctx context.Context, projectID int64, base string) ([]string, bool, error) {
	st, err := s.states.Get(ctx, base)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(st.DiscoveredURLs) == 0 {
		return nil, false, nil
	}
	logger.Info("Continuing scrape of %s: %d pages remaining", base, len(st.RemainingURLs()))

	// Deferred embeddings are flushed before any new fetching so the
	// index never lags further behind than one interrupted run
	if len(st.PendingEmbeddingChunkIDs) > 0 {
		logger.Info("Flushing %d deferred chunk embeddings", len(st.PendingEmbeddingChunkIDs))
		if _, err := s.ingest.EmbedChunks(ctx, projectID, st.PendingEmbeddingChunkIDs); err != nil {
			return nil, false, fmt.Errorf("flush deferred embeddings: %w", err)
		}
		if st, err = s.states.Update(ctx, base, func(cur *domain.ScrapeState) error {
			cur.PendingEmbeddingChunkIDs = nil
			return nil
		}); err != nil {
			return nil, false, err
		}
	}

	if _, err := s.states.Update(ctx, base, func(cur *domain.ScrapeState) error {
		cur.Status = domain.ScrapeStatusScraping
		return nil
	}); err != nil {
		return nil, false, err
	}
	return st.RemainingURLs(), true, nil
}

func (s *CrawlService) processPages(
	ctx context.Context, projectID, assetID int64, base string, pending []string,
	opts driving.CrawlOptions, limiter *rate.Limiter, robots *crawler.Robots, monitor *crawler.Monitor,
) (*driving.CrawlResult, error) {
	logger.Section("Page Processing")
	workers := opts.Concurrency
	if workers <= 0 {
		workers = s.settings.CrawlConcurrency()
	}
	if s.settings.CrawlBrowserMode() {
		workers = 1
	}
	logger.Debug("Processing %d pages with %d workers", len(pending), workers)

	result := &driving.CrawlResult{}
	var (
		mu        sync.Mutex
		cancelled bool
		firstErr  error
	)

	// Workers pull URLs from the channel; per-URL checkpoint updates go
	// through the state store's read-modify-write, so concurrent page
	// completions never interleave partial writes.
	urls := make(chan string)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pageURL := range urls {
				skipReason, chunkIDs, err := s.processPage(ctx, projectID, assetID, pageURL, opts, limiter, robots)
				if err != nil {
					// An interrupted page is neither processed nor skipped;
					// it stays pending for the next run
					mu.Lock()
					cancelled = true
					mu.Unlock()
					continue
				}

				st, err := s.states.Update(ctx, base, func(cur *domain.ScrapeState) error {
					if skipReason != "" {
						cur.SkippedURLs = append(cur.SkippedURLs, domain.SkippedURL{URL: pageURL, Reason: skipReason})
						return nil
					}
					cur.ProcessedURLs = append(cur.ProcessedURLs, pageURL)
					if opts.DeferEmbedding {
						cur.PendingEmbeddingChunkIDs = append(cur.PendingEmbeddingChunkIDs, chunkIDs...)
					}
					return nil
				})

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("checkpoint page: %w", err)
					}
					mu.Unlock()
					continue
				}
				if skipReason != "" {
					logger.Debug("Skipped %s: %s", pageURL, skipReason)
					result.PagesSkipped++
				} else {
					result.PagesProcessed++
				}
				result.State = st
				mu.Unlock()
			}
		}()
	}

	for _, pageURL := range pending {
		mu.Lock()
		stop := cancelled || firstErr != nil
		mu.Unlock()
		if stop {
			break
		}
		if ctx.Err() != nil || monitor.Cancelled() {
			mu.Lock()
			cancelled = true
			mu.Unlock()
			break
		}
		urls <- pageURL
	}
	close(urls)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// One sparse rebuild covers the whole run
	if result.PagesProcessed > 0 {
		if _, err := s.ingest.RebuildSparse(ctx, projectID); err != nil {
			return nil, err
		}
	}

	status := domain.ScrapeStatusCompleted
	if cancelled {
		status = domain.ScrapeStatusCancelled
		logger.Info("Scrape cancelled with %d pages processed", result.PagesProcessed)
	}
	st, err := s.states.Update(ctx, base, func(cur *domain.ScrapeState) error {
		cur.Status = status
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint final status: %w", err)
	}
	result.State = st
	return result, nil
}

// processPage fetches and ingests one page. A non-empty skip reason
// means the page was rejected; chunkIDs are the ids stored for it.
// A non-nil error means the run was interrupted before the page got a
// verdict; the page must stay pending, not be recorded as skipped.
func (s *CrawlService) processPage(
	ctx context.Context, projectID, assetID int64, pageURL string,
	opts driving.CrawlOptions, limiter *rate.Limiter, robots *crawler.Robots,
) (string, []int64, error) {
	if !opts.IgnoreRobots && !robots.Allowed(ctx, pageURL) {
		return "disallowed by robots.txt", nil, nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	res, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return fmt.Sprintf("fetch failed: %v", err), nil, nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Sprintf("http status %d", res.StatusCode), nil, nil
	}
	if !strings.Contains(res.ContentType, "text/html") {
		return fmt.Sprintf("not html (%s)", res.ContentType), nil, nil
	}

	html := string(res.Body)
	text, err := extract.Content(html)
	if err != nil {
		return fmt.Sprintf("extraction failed: %v", err), nil, nil
	}
	if len(text) < minPageContent {
		return "content too short", nil, nil
	}

	md, err := extract.Metadata(html)
	if err != nil {
		md = &extract.PageMetadata{}
	}
	meta := domain.Metadata{
		domain.MetaSource: pageURL,
		domain.MetaURL:    pageURL,
	}
	if u, err := url.Parse(pageURL); err == nil {
		meta[domain.MetaDomain] = u.Host
	}
	if md.Title != "" {
		meta[domain.MetaTitle] = md.Title
	}
	if md.Description != "" {
		meta[domain.MetaDescription] = md.Description
	}

	chunkIDs, err := s.storePage(ctx, projectID, assetID, text, meta, opts.DeferEmbedding)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return fmt.Sprintf("ingestion failed: %v", err), nil, nil
	}
	return "", chunkIDs, nil
}

// storePage chunks and stores one page's text, embedding immediately
// unless deferred.
func (s *CrawlService) storePage(ctx context.Context, projectID, assetID int64, text string, meta domain.Metadata, deferred bool) ([]int64, error) {
	proc := chunker.New(
		chunker.WithChunkSize(s.settings.ChunkSize()),
		chunker.WithOverlap(s.settings.ChunkOverlap()),
	)
	cut := proc.Process([]driving.Segment{{Text: text, Metadata: meta}})
	if len(cut) == 0 {
		return nil, nil
	}
	for _, c := range cut {
		c.ProjectID = projectID
		c.AssetID = assetID
	}

	ids, err := s.chunks.InsertChunks(ctx, cut)
	if err != nil {
		return nil, err
	}
	if !deferred {
		if _, err := s.ingest.EmbedChunks(ctx, projectID, ids); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *CrawlService) markFailed(ctx context.Context, base string) {
	if _, err := s.states.Update(ctx, base, func(cur *domain.ScrapeState) error {
		cur.Status = domain.ScrapeStatusFailed
		return nil
	}); err != nil {
		logger.Warn("Failed to checkpoint FAILED status: %v", err)
	}
}

// Cancel drops the cancel flag for a running job.
func (s *CrawlService) Cancel(_ context.Context, baseURL string) error {
	base, err := crawler.NormalizeBaseURL(baseURL)
	if err != nil {
		return err
	}
	return crawler.RequestCancel(s.dataDir, base)
}

// Status returns the persisted job state for a base URL.
func (s *CrawlService) Status(ctx context.Context, baseURL string) (*domain.ScrapeState, error) {
	base, err := crawler.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return s.states.Get(ctx, base)
}

// Probe fetches and extracts a single page without ingesting it.
func (s *CrawlService) Probe(ctx context.Context, rawURL string) (*driving.ProbeResult, error) {
	res, err := s.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: http status %d", rawURL, res.StatusCode)
	}

	html := string(res.Body)
	text, err := extract.Content(html)
	if err != nil {
		return nil, err
	}
	md, err := extract.Metadata(html)
	if err != nil {
		return nil, err
	}
	links, err := extract.Links(html, res.URL)
	if err != nil {
		return nil, err
	}

	return &driving.ProbeResult{
		URL:         rawURL,
		Title:       md.Title,
		Description: md.Description,
		Text:        text,
		Links:       links,
	}, nil
}
