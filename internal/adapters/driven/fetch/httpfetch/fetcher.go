// Package httpfetch provides the production Fetcher over net/http.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "quarry-cli/1.0 (+https://github.com/quarrylabs/quarry-cli)"

	// maxBodySize caps page bodies at 10 MiB. Anything bigger is not a
	// documentation page worth chunking.
	maxBodySize = 10 << 20

	maxRedirects = 10
)

// Config holds configuration for the HTTP fetcher.
type Config struct {
	// UserAgent is sent on every request (default: quarry-cli/1.0).
	UserAgent string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Fetcher retrieves pages over HTTP with a shared client.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates an HTTP fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
	}
}

// Get fetches a URL body.
func (f *Fetcher) Get(ctx context.Context, url string) (*driven.FetchResult, error) {
	resp, err := f.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}

	return &driven.FetchResult{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// Head performs a HEAD request. The body is always empty.
func (f *Fetcher) Head(ctx context.Context, url string) (*driven.FetchResult, error) {
	resp, err := f.do(ctx, http.MethodHead, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return &driven.FetchResult{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (f *Fetcher) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return resp, nil
}
