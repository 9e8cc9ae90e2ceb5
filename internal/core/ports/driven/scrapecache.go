package driven

import (
	"context"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
)

// ScrapeStateStore persists scrape job checkpoints keyed by the
// normalised base URL.
type ScrapeStateStore interface {
	// Get loads the state for a base URL, or domain.ErrNotFound.
	Get(ctx context.Context, baseURL string) (*domain.ScrapeState, error)

	// Update applies fn to the current state (or a zero state if none
	// exists) and persists the result atomically. fn returning an error
	// aborts the update without writing.
	Update(ctx context.Context, baseURL string, fn func(*domain.ScrapeState) error) (*domain.ScrapeState, error)

	// Delete removes a base URL's state. Missing is not an error.
	Delete(ctx context.Context, baseURL string) error
}
