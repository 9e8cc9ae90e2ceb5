package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMetadata is the descriptive metadata of an HTML page.
type PageMetadata struct {
	// Title is the <title> text, falling back to the first <h1>.
	Title string

	// Description is the meta description, when present.
	Description string
}

// Metadata extracts title and description from an HTML page.
func Metadata(html string) (*PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}

	md := &PageMetadata{}

	md.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if md.Title == "" {
		md.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		md.Description = strings.TrimSpace(desc)
	}

	return md, nil
}
