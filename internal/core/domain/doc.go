// Package domain contains the core business entities for Quarry:
// projects, assets, chunks, scrape state and retrieval results.
// It has no dependencies on infrastructure packages.
package domain
