package crawler

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/quarrylabs/quarry-cli/internal/logger"
)

// RequestCancel asks a running scrape of baseURL to stop by dropping a
// flag file in the data directory. The running job notices via its
// Monitor, finishes the page in flight and terminates cleanly.
func RequestCancel(dataDir, baseURL string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("crawler: create data dir: %w", err)
	}
	path := filepath.Join(dataDir, flagName(baseURL))
	if err := os.WriteFile(path, []byte("cancel\n"), 0o644); err != nil {
		return fmt.Errorf("crawler: write cancel flag: %w", err)
	}
	return nil
}

// ClearCancel removes a base URL's cancel flag, if any.
func ClearCancel(dataDir, baseURL string) error {
	path := filepath.Join(dataDir, flagName(baseURL))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("crawler: remove cancel flag: %w", err)
	}
	return nil
}

// Monitor watches for a scrape job's cancel flag. It combines an
// fsnotify watch with a stat fallback so a flag dropped before the
// watch started is still seen.
type Monitor struct {
	path      string
	watcher   *fsnotify.Watcher
	cancelled atomic.Bool
	done      chan struct{}
}

// NewMonitor starts watching the data directory for the base URL's
// cancel flag. Callers must Close the monitor when the job ends.
func NewMonitor(dataDir, baseURL string) (*Monitor, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("crawler: create data dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("crawler: create watcher: %w", err)
	}
	if err := watcher.Add(dataDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("crawler: watch data dir: %w", err)
	}

	m := &Monitor{
		path:    filepath.Join(dataDir, flagName(baseURL)),
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go m.watch()
	return m, nil
}

func (m *Monitor) watch() {
	for {
		select {
		case <-m.done:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Name == m.path && event.Has(fsnotify.Create|fsnotify.Write) {
				logger.Info("crawler: cancel flag detected")
				m.cancelled.Store(true)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("crawler: watcher error: %v", err)
		}
	}
}

// Cancelled reports whether cancellation was requested. Jobs call this
// between page fetches.
func (m *Monitor) Cancelled() bool {
	if m.cancelled.Load() {
		return true
	}
	// Stat fallback covers flags written before the watch began
	if _, err := os.Stat(m.path); err == nil {
		m.cancelled.Store(true)
		return true
	}
	return false
}

// Close stops the watcher and removes the flag file so the next run
// starts clean.
func (m *Monitor) Close() error {
	close(m.done)
	err := m.watcher.Close()
	if rmErr := os.Remove(m.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
