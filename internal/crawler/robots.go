package crawler

import (
	"context"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// Robots caches parsed robots.txt per host. A missing or unfetchable
// robots.txt allows everything, matching crawler convention.
type Robots struct {
	fetcher   driven.Fetcher
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobots creates a robots.txt checker backed by the given fetcher.
func NewRobots(fetcher driven.Fetcher, userAgent string) *Robots {
	return &Robots{
		fetcher:   fetcher,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the user agent may fetch the URL.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	data := r.data(ctx, u)
	if data == nil {
		return true
	}
	return data.TestAgent(u.Path, r.userAgent)
}

// Sitemaps returns the sitemap URLs declared in the host's robots.txt.
func (r *Robots) Sitemaps(ctx context.Context, baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	data := r.data(ctx, u)
	if data == nil {
		return nil
	}
	return data.Sitemaps
}

func (r *Robots) data(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	r.mu.Lock()
	if data, ok := r.cache[u.Host]; ok {
		r.mu.Unlock()
		return data
	}
	r.mu.Unlock()

	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	res, err := r.fetcher.Get(ctx, robotsURL)

	var data *robotstxt.RobotsData
	if err != nil || res.StatusCode != 200 {
		logger.Debug("crawler: no robots.txt for %s, allowing all", u.Host)
	} else if parsed, perr := robotstxt.FromBytes(res.Body); perr != nil {
		logger.Warn("crawler: unparsable robots.txt for %s: %v", u.Host, perr)
	} else {
		data = parsed
	}

	r.mu.Lock()
	r.cache[u.Host] = data
	r.mu.Unlock()
	return data
}
