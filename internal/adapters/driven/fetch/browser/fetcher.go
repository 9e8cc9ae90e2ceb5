// Package browser provides a Fetcher that renders pages in a headless
// browser before extraction. Needed for JS-heavy documentation sites
// where the server response carries no content. The crawler forces
// concurrency to one in this mode; a page is rendered at a time.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// DefaultTimeout is the per-page render timeout.
const DefaultTimeout = 60 * time.Second

// Config holds browser fetcher settings.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds navigation plus rendering per page.
	Timeout time.Duration

	// Probe handles HEAD requests; rendering is pointless for probes,
	// so they go over plain HTTP.
	Probe driven.Fetcher
}

// Fetcher renders pages with a headless Chromium instance.
type Fetcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	probe   driven.Fetcher
	ua      string
	timeout time.Duration
}

// New launches a headless browser. The caller must Close it.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("browser: starting playwright: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop() //nolint:errcheck
		return nil, fmt.Errorf("browser: launching chromium: %w", err)
	}

	return &Fetcher{
		pw:      pw,
		browser: b,
		probe:   cfg.Probe,
		ua:      cfg.UserAgent,
		timeout: cfg.Timeout,
	}, nil
}

// Get navigates to the URL, waits for the network to settle and returns
// the rendered DOM as the body.
func (f *Fetcher) Get(ctx context.Context, url string) (*driven.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := playwright.BrowserNewPageOptions{}
	if f.ua != "" {
		opts.UserAgent = playwright.String(f.ua)
	}
	page, err := f.browser.NewPage(opts)
	if err != nil {
		return nil, fmt.Errorf("browser: opening page: %w", err)
	}
	defer page.Close() //nolint:errcheck

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(f.timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("browser: navigating to %s: %w", url, err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("browser: reading rendered content: %w", err)
	}

	result := &driven.FetchResult{
		URL:  page.URL(),
		Body: []byte(html),
	}
	if resp != nil {
		result.StatusCode = resp.Status()
		headers := resp.Headers()
		result.ContentType = headers["content-type"]
	}
	return result, nil
}

// Head delegates to the plain HTTP probe; a probe needs no rendering.
func (f *Fetcher) Head(ctx context.Context, url string) (*driven.FetchResult, error) {
	if f.probe == nil {
		return nil, fmt.Errorf("browser: no probe fetcher configured")
	}
	return f.probe.Head(ctx, url)
}

// Close shuts down the browser and the playwright driver.
func (f *Fetcher) Close() error {
	if err := f.browser.Close(); err != nil {
		return err
	}
	return f.pw.Stop()
}
