package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/metrics"
)

// DefaultPrefix is the naming prefix for scratch directories under the
// system temp root. The startup sweep uses it to distinguish this service's
// orphans from unrelated temp content.
const DefaultPrefix = "audio_toolkit_"

// DefaultMaxAge is the age threshold for the orphan sweep.
const DefaultMaxAge = 1 * time.Hour

// Manager allocates scratch directories for multi-file pipelines and
// guarantees their release. A process-wide registry of live directories is
// kept only so that shutdown and crash recovery can sweep them; normal
// operation always self-cleans via WithDir.
type Manager struct {
	root   string
	prefix string

	mu   sync.Mutex
	live map[string]struct{}
}

// NewManager creates a Manager rooted at the system temp directory.
func NewManager(prefix string) *Manager {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Manager{
		root:   os.TempDir(),
		prefix: prefix,
		live:   make(map[string]struct{}),
	}
}

// WithDir creates a uniquely-named scratch directory, runs fn with its path,
// and removes the directory afterwards on both the success and failure
// paths.
func (m *Manager) WithDir(fn func(dir string) error) error {
	dir, err := os.MkdirTemp(m.root, m.prefix)
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}

	m.register(dir)
	metrics.ScratchDirsCreated.Inc()
	logging.Debug("Created scratch directory: %s", dir)

	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logging.Error("Failed to remove scratch directory %s: %v", dir, err)
		} else {
			logging.Debug("Removed scratch directory: %s", dir)
		}
		m.deregister(dir)
	}()

	return fn(dir)
}

// CleanupAll removes every registered scratch directory. Called on shutdown
// so an interrupted pipeline does not leave directories behind.
func (m *Manager) CleanupAll() {
	m.mu.Lock()
	dirs := make([]string, 0, len(m.live))
	for dir := range m.live {
		dirs = append(dirs, dir)
	}
	m.mu.Unlock()

	if len(dirs) == 0 {
		return
	}

	logging.Info("Cleaning up %d scratch directories", len(dirs))
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			logging.Warn("Failed to remove scratch directory %s: %v", dir, err)
		}
		m.deregister(dir)
	}
}

// LiveCount returns the number of currently registered scratch directories.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// SweepOrphans scans the temp root for directories matching the manager's
// prefix whose modification time is older than maxAge and removes them.
// This recovers directories left behind by a crash that skipped WithDir's
// cleanup. Returns the number of directories removed.
func (m *Manager) SweepOrphans(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("failed to read temp root %s: %w", m.root, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), m.prefix) {
			continue
		}

		path := filepath.Join(m.root, entry.Name())

		// Never sweep a directory a live pipeline owns.
		m.mu.Lock()
		_, isLive := m.live[path]
		m.mu.Unlock()
		if isLive {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logging.Warn("Failed to stat orphan candidate %s: %v", path, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			logging.Warn("Failed to remove orphaned scratch directory %s: %v", path, err)
			continue
		}
		removed++
		metrics.ScratchOrphansSwept.Inc()
		logging.Debug("Removed orphaned scratch directory: %s", path)
	}

	if removed > 0 {
		logging.Info("Swept %d orphaned scratch directories", removed)
	}
	return removed, nil
}

func (m *Manager) register(dir string) {
	m.mu.Lock()
	m.live[dir] = struct{}{}
	metrics.ScratchDirsLive.Set(float64(len(m.live)))
	m.mu.Unlock()
}

func (m *Manager) deregister(dir string) {
	m.mu.Lock()
	delete(m.live, dir)
	metrics.ScratchDirsLive.Set(float64(len(m.live)))
	m.mu.Unlock()
}
