// Package extract pulls readable main content, metadata and crawlable
// links out of HTML pages. It is tuned for documentation sites: known
// docs-framework content containers are preferred over the raw body, and
// navigation chrome is stripped before text extraction.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MinContentLength is the threshold below which container extraction is
// considered to have failed and the whole body is retried.
const MinContentLength = 100

// contentSelectors are tried in order; the first match wins. The class
// names cover Docusaurus, Mintlify and common static-site themes.
var contentSelectors = []string{
	"main",
	"article",
	".theme-doc-markdown",
	".docs-doc-page",
	".markdown",
	".content",
	".main-content",
	".docs-content",
	"#content",
	"#main",
}

// stripTags are removed outright before any text extraction.
var stripTags = []string{
	"script", "style", "noscript", "iframe", "svg",
	"img", "picture", "video", "audio", "canvas",
}

// noiseTags hold page chrome rather than content.
var noiseTags = []string{"nav", "header", "footer", "aside"}

// noiseRoles are ARIA landmark roles for page chrome.
var noiseRoles = []string{"navigation", "banner", "contentinfo", "complementary"}

// noiseClassHints flag chrome containers by class name substring.
var noiseClassHints = []string{"nav", "menu", "footer", "sidebar", "breadcrumb"}

// Content extracts the readable main text of an HTML page.
//
// The first matching content container is used; if the cleaned text is
// shorter than MinContentLength the body is re-extracted and the longer
// of the two results returned. The output is line-oriented with runs of
// whitespace collapsed, ready for chunking.
func Content(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("extract: parse html: %w", err)
	}

	doc.Find(strings.Join(stripTags, ", ")).Remove()

	var container *goquery.Selection
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			container = s
			break
		}
	}
	if container == nil {
		container = doc.Find("body")
	}

	text := cleanText(container)
	if len(text) < MinContentLength {
		// Container extraction came up short; the page may keep its
		// content outside the usual landmarks
		if fallback := cleanText(doc.Find("body")); len(fallback) > len(text) {
			text = fallback
		}
	}
	return text, nil
}

// cleanText removes chrome from a clone of the selection and returns its
// normalised text.
func cleanText(sel *goquery.Selection) string {
	clone := sel.Clone()

	clone.Find(strings.Join(noiseTags, ", ")).Remove()
	for _, role := range noiseRoles {
		clone.Find(fmt.Sprintf(`[role=%q]`, role)).Remove()
	}
	clone.Find("[aria-label]").Each(func(_ int, s *goquery.Selection) {
		label := strings.ToLower(s.AttrOr("aria-label", ""))
		for _, hint := range noiseClassHints {
			if strings.Contains(label, hint) {
				s.Remove()
				return
			}
		}
	})
	clone.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class := strings.ToLower(s.AttrOr("class", ""))
		for _, hint := range noiseClassHints {
			if strings.Contains(class, hint) {
				s.Remove()
				return
			}
		}
	})

	return normaliseWhitespace(clone.Text())
}

// normaliseWhitespace collapses intra-line whitespace and drops blank
// lines, preserving line boundaries for the chunker.
func normaliseWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}
