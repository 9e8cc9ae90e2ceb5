package domain

// ScrapeStatus is the lifecycle state of a scrape job.
type ScrapeStatus string

// Scrape job states. A job moves DISCOVERING -> SCRAPING and terminates
// in exactly one of COMPLETED, CANCELLED or FAILED.
const (
	ScrapeStatusDiscovering ScrapeStatus = "DISCOVERING"
	ScrapeStatusScraping    ScrapeStatus = "SCRAPING"
	ScrapeStatusCompleted   ScrapeStatus = "COMPLETED"
	ScrapeStatusCancelled   ScrapeStatus = "CANCELLED"
	ScrapeStatusFailed      ScrapeStatus = "FAILED"
)

// Terminal reports whether the status is a final state.
func (s ScrapeStatus) Terminal() bool {
	switch s {
	case ScrapeStatusCompleted, ScrapeStatusCancelled, ScrapeStatusFailed:
		return true
	}
	return false
}

// SkippedURL records a page that was fetched but not ingested, with the
// reason (non-2xx status, non-HTML content type, or too little text).
type SkippedURL struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// ScrapeState is the persisted checkpoint of a scrape job, keyed by the
// normalised base URL. It is written after every processed page so an
// interrupted or cancelled job can resume without refetching pages that
// were already handled.
type ScrapeState struct {
	// JobID identifies one scrape run. A fresh id is assigned every time
	// discovery starts; resumes keep the id of the run they continue.
	JobID string `json:"job_id"`

	// BaseURL is the normalised base URL the job was started with.
	BaseURL string `json:"base_url"`

	// ProjectID is the owning project.
	ProjectID int64 `json:"project_id"`

	// AssetID is the url-scrape asset registered for this job.
	AssetID int64 `json:"asset_id"`

	// DiscoveredURLs is the full ordered page list found during discovery.
	DiscoveredURLs []string `json:"discovered_urls"`

	// ProcessedURLs are pages that were fetched, extracted and chunked.
	ProcessedURLs []string `json:"processed_urls"`

	// SkippedURLs are pages that were fetched but rejected, with reasons.
	SkippedURLs []SkippedURL `json:"skipped_urls"`

	// PendingEmbeddingChunkIDs are chunk ids stored but not yet embedded.
	// A resume flushes these before fetching any new page.
	PendingEmbeddingChunkIDs []int64 `json:"pending_embedding_chunk_ids"`

	// Status is the current lifecycle state.
	Status ScrapeStatus `json:"status"`
}

// RemainingURLs returns discovered pages that were neither processed nor
// skipped, preserving discovery order.
func (s *ScrapeState) RemainingURLs() []string {
	done := make(map[string]struct{}, len(s.ProcessedURLs)+len(s.SkippedURLs))
	for _, u := range s.ProcessedURLs {
		done[u] = struct{}{}
	}
	for _, sk := range s.SkippedURLs {
		done[sk.URL] = struct{}{}
	}

	var remaining []string
	for _, u := range s.DiscoveredURLs {
		if _, ok := done[u]; !ok {
			remaining = append(remaining, u)
		}
	}
	return remaining
}
