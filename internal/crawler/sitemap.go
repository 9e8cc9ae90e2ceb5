package crawler

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/quarrylabs/quarry-cli/internal/extract"
	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// maxSitemapDepth bounds recursion through nested sitemap indexes.
const maxSitemapDepth = 5

// wellKnownSitemaps are probed relative to the site root before falling
// back to robots.txt declarations.
var wellKnownSitemaps = []string{"/sitemap.xml", "/sitemap_index.xml"}

type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// discoverFromSitemaps collects beneficial page URLs from the site's
// sitemaps: the well-known locations plus any declared in robots.txt.
// Index sitemaps are resolved recursively.
func (d *Discoverer) discoverFromSitemaps(ctx context.Context, base *url.URL, maxPages int) ([]string, error) {
	root := base.Scheme + "://" + base.Host

	candidates := make([]string, 0, 4)
	for _, p := range wellKnownSitemaps {
		candidates = append(candidates, root+p)
	}
	candidates = append(candidates, d.robots.Sitemaps(ctx, base.String())...)

	visited := make(map[string]struct{})
	seen := make(map[string]struct{})
	var pages []string

	for _, sm := range candidates {
		if err := d.resolveSitemap(ctx, sm, base, 0, visited, seen, &pages, maxPages); err != nil {
			return nil, err
		}
		if maxPages > 0 && len(pages) >= maxPages {
			break
		}
	}
	return pages, nil
}

func (d *Discoverer) resolveSitemap(ctx context.Context, sitemapURL string, base *url.URL, depth int, visited, seen map[string]struct{}, pages *[]string, maxPages int) error {
	if depth > maxSitemapDepth {
		logger.Warn("crawler: sitemap nesting exceeds %d levels at %s", maxSitemapDepth, sitemapURL)
		return nil
	}
	if _, ok := visited[sitemapURL]; ok {
		return nil
	}
	visited[sitemapURL] = struct{}{}

	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	res, err := d.fetcher.Get(ctx, sitemapURL)
	if err != nil || res.StatusCode != 200 {
		logger.Debug("crawler: sitemap %s unavailable", sitemapURL)
		return nil
	}

	// An index sitemap nests further sitemaps; a urlset lists pages
	var index sitemapIndex
	if xml.Unmarshal(res.Body, &index) == nil && len(index.Sitemaps) > 0 {
		logger.Debug("crawler: sitemap index %s with %d children", sitemapURL, len(index.Sitemaps))
		for _, child := range index.Sitemaps {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			if err := d.resolveSitemap(ctx, loc, base, depth+1, visited, seen, pages, maxPages); err != nil {
				return err
			}
			if maxPages > 0 && len(*pages) >= maxPages {
				return nil
			}
		}
		return nil
	}

	var urls sitemapURLSet
	if err := xml.Unmarshal(res.Body, &urls); err != nil {
		logger.Debug("crawler: sitemap %s is not valid xml", sitemapURL)
		return nil
	}
	for _, entry := range urls.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" || !extract.IsBeneficialLink(base, loc) {
			continue
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		*pages = append(*pages, loc)
		if maxPages > 0 && len(*pages) >= maxPages {
			return nil
		}
	}
	return nil
}
