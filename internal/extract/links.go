package extract

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// binaryExtensions are file types a crawler should never fetch as pages.
var binaryExtensions = map[string]bool{
	".pdf": true, ".zip": true, ".tar": true, ".gz": true, ".tgz": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".webp": true, ".ico": true, ".mp4": true, ".webm": true, ".mp3": true,
	".wav": true, ".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".css": true, ".js": true, ".json": true, ".xml": true, ".exe": true,
	".dmg": true, ".deb": true, ".rpm": true,
}

// excludedPathPrefixes are site areas that never hold documentation.
var excludedPathPrefixes = []string{
	"/search", "/login", "/logout", "/register", "/api/", "/_next/", "/static/",
}

// Links returns the absolute, crawl-worthy links of a page, deduplicated
// in document order. Only links that pass IsBeneficialLink against the
// page URL are kept.
func Links(html string, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract: parse page url: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		link := abs.String()

		if !IsBeneficialLink(base, link) {
			return
		}
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links, nil
}

// IsBeneficialLink reports whether a link is worth crawling from the
// given base: same origin, not a binary asset, and not in an excluded
// site area. The check is stable under its own output, so filtered link
// sets can be re-filtered without loss.
func IsBeneficialLink(base *url.URL, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host != base.Host {
		return false
	}
	if u.Fragment != "" {
		return false
	}
	if binaryExtensions[strings.ToLower(path.Ext(u.Path))] {
		return false
	}
	lower := strings.ToLower(u.Path)
	for _, prefix := range excludedPathPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}
