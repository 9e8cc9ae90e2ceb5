package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/extract"
	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// minSitemapURLs is the threshold under which sitemap discovery is
// considered too thin and the breadth-first crawl kicks in as well.
const minSitemapURLs = 10

// Discoverer finds the pages of a site worth ingesting.
type Discoverer struct {
	fetcher driven.Fetcher
	limiter *rate.Limiter
	robots  *Robots

	// ignoreRobots skips robots.txt checks during the BFS crawl.
	ignoreRobots bool
}

// NewDiscoverer creates a discoverer. The limiter is shared with the
// page-fetching phase so the site sees one request budget.
func NewDiscoverer(fetcher driven.Fetcher, limiter *rate.Limiter, robots *Robots, ignoreRobots bool) *Discoverer {
	return &Discoverer{
		fetcher:      fetcher,
		limiter:      limiter,
		robots:       robots,
		ignoreRobots: ignoreRobots,
	}
}

// Discover returns up to maxPages crawlable page URLs for the base URL.
// Sitemaps are tried first; when they yield fewer than minSitemapURLs
// pages a breadth-first crawl from the base supplements them. The base
// URL itself always leads the result.
func (d *Discoverer) Discover(ctx context.Context, baseURL string, maxPages int) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("crawler: parse base url: %w", err)
	}

	logger.Section("Page Discovery")

	fromSitemaps, err := d.discoverFromSitemaps(ctx, base, maxPages)
	if err != nil {
		return nil, err
	}
	logger.Info("crawler: %d pages from sitemaps", len(fromSitemaps))

	pages := mergeURLs(baseURL, fromSitemaps, nil)
	if len(fromSitemaps) < minSitemapURLs {
		fromCrawl, err := d.discoverByCrawling(ctx, base, baseURL, maxPages)
		if err != nil {
			return nil, err
		}
		logger.Info("crawler: %d pages from link crawl", len(fromCrawl))
		pages = mergeURLs(baseURL, fromSitemaps, fromCrawl)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no crawlable pages under %s", domain.ErrDiscoveryFailed, baseURL)
	}
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	return pages, nil
}

// discoverByCrawling walks same-site links breadth-first from the base.
func (d *Discoverer) discoverByCrawling(ctx context.Context, base *url.URL, baseURL string, maxPages int) ([]string, error) {
	visited := map[string]struct{}{baseURL: {}}
	queue := []string{baseURL}
	var pages []string

	for len(queue) > 0 {
		if maxPages > 0 && len(pages) >= maxPages {
			break
		}
		current := queue[0]
		queue = queue[1:]

		if !d.ignoreRobots && !d.robots.Allowed(ctx, current) {
			logger.Debug("crawler: robots.txt disallows %s", current)
			continue
		}
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := d.fetcher.Get(ctx, current)
		if err != nil {
			logger.Debug("crawler: fetch %s: %v", current, err)
			continue
		}
		if res.StatusCode != 200 || !strings.Contains(res.ContentType, "text/html") {
			continue
		}
		pages = append(pages, current)

		links, err := extract.Links(string(res.Body), current)
		if err != nil {
			continue
		}
		for _, link := range links {
			if _, ok := visited[link]; ok {
				continue
			}
			visited[link] = struct{}{}
			queue = append(queue, link)
		}
	}
	return pages, nil
}

// mergeURLs combines discovery sources, deduplicated, base URL first.
func mergeURLs(baseURL string, sources ...[]string) []string {
	seen := map[string]struct{}{baseURL: {}}
	merged := []string{baseURL}
	for _, src := range sources {
		for _, u := range src {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			merged = append(merged, u)
		}
	}
	return merged
}
