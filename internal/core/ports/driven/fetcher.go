package driven

import "context"

// FetchResult is the outcome of retrieving one URL.
type FetchResult struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body. Empty for Head results.
	Body []byte
}

// Fetcher retrieves pages over HTTP. Implementations apply the configured
// user agent and timeout; rate limiting and robots checks live in the
// crawler, not here.
type Fetcher interface {
	// Get fetches a URL body.
	Get(ctx context.Context, url string) (*FetchResult, error)

	// Head performs a HEAD request, used as a cheap accessibility probe
	// before committing to a full scrape.
	Head(ctx context.Context, url string) (*FetchResult, error)
}
