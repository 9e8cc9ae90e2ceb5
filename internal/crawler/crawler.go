// Package crawler discovers and walks documentation sites. Discovery is
// sitemap-first with a breadth-first link crawl as fallback; all fetches
// go through a shared rate limiter and respect robots.txt unless
// explicitly overridden.
package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeBaseURL canonicalises a base URL so it can key scrape state:
// lowercased scheme and host, no fragment, no trailing slash. Bare hosts
// get an https scheme.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("crawler: empty base url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("crawler: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("crawler: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("crawler: base url has no host")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

// flagName turns a base URL into a filesystem-safe cancel flag name.
func flagName(baseURL string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, baseURL)
	return "cancel_" + sanitized + ".flag"
}
