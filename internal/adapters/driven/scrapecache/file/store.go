// Package file persists scrape job checkpoints as JSON files, one per
// base URL. Writes go through a temp file and rename so a crash mid-write
// never leaves a torn checkpoint behind.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driven"
)

// Store keeps scrape state files under a data directory.
type Store struct {
	dir string

	// mu serialises read-modify-write cycles across goroutines.
	mu sync.Mutex
}

var _ driven.ScrapeStateStore = (*Store)(nil)

// New creates a scrape state store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(baseURL string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, baseURL)
	return filepath.Join(s.dir, "scrape_"+sanitized+".json")
}

// Get loads the state for a base URL.
func (s *Store) Get(_ context.Context, baseURL string) (*domain.ScrapeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(baseURL)
}

// Update applies fn to the current state (or a fresh one) and persists
// the result atomically.
func (s *Store) Update(_ context.Context, baseURL string, fn func(*domain.ScrapeState) error) (*domain.ScrapeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read(baseURL)
	if err != nil {
		if err != domain.ErrNotFound {
			return nil, err
		}
		st = &domain.ScrapeState{BaseURL: baseURL}
	}

	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.write(baseURL, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Delete removes a base URL's state file.
func (s *Store) Delete(_ context.Context, baseURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(baseURL)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scrapecache: delete state: %w", err)
	}
	return nil
}

func (s *Store) read(baseURL string) (*domain.ScrapeState, error) {
	data, err := os.ReadFile(s.path(baseURL))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scrapecache: read state: %w", err)
	}

	var st domain.ScrapeState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("scrapecache: decode state: %w", err)
	}
	return &st, nil
}

func (s *Store) write(baseURL string, st *domain.ScrapeState) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("scrapecache: create data dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("scrapecache: encode state: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "scrape_*.tmp")
	if err != nil {
		return fmt.Errorf("scrapecache: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("scrapecache: write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("scrapecache: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(baseURL)); err != nil {
		return fmt.Errorf("scrapecache: replace state: %w", err)
	}
	return nil
}
