package domain

// Metadata is the free-form per-chunk metadata map. It is stored as JSON
// alongside the chunk and mirrored into the dense index payload so hits
// can be explained without a second lookup.
type Metadata map[string]any

// Well-known metadata keys. Producers are not limited to these, but
// readers (result formatting, filters) only interpret the keys below.
const (
	// MetaSource is the originating file name or URL of the chunk.
	MetaSource = "source"

	// MetaPage is the 1-based page number for paginated documents.
	MetaPage = "page"

	// MetaTitle is the page or document title.
	MetaTitle = "title"

	// MetaDescription is the page meta description, when present.
	MetaDescription = "description"

	// MetaDomain is the host the content was scraped from.
	MetaDomain = "domain"

	// MetaURL is the exact URL the chunk text was extracted from.
	MetaURL = "url"

	// MetaChunkOrder is the 1-based position of the chunk within its source.
	MetaChunkOrder = "chunk_order"
)

// Clone returns a shallow copy of the metadata map. A nil map clones to nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
