// Package filestate persists how far each activity file has been ingested.
package filestate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Offsets maps an activity file path to the byte offset already ingested.
type Offsets map[string]int64

// Prune drops the offsets of files not in present and returns how many were dropped.
// A rotated-away file that reappears under the same name then starts from 0.
func (o Offsets) Prune(present []string) int {
	keep := make(map[string]struct{}, len(present))
	for _, path := range present {
		keep[path] = struct{}{}
	}
	dropped := 0
	for path := range o {
		if _, ok := keep[path]; !ok {
			delete(o, path)
			dropped++
		}
	}
	return dropped
}

type Manager interface {
	Load() (Offsets, error)
	Save(offsets Offsets) error
	Path() string
}

type fileStateManager struct {
	filePath string
	mu       sync.RWMutex
}

func NewManager(filePath string) Manager {
	return &fileStateManager{filePath: filePath}
}

// Load returns the saved offsets. A missing or empty state file yields empty offsets.
func (m *fileStateManager) Load() (Offsets, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("file", m.filePath).Msg("Ingest state file not found, starting fresh.")
		return Offsets{}, nil
	case err != nil:
		return nil, fmt.Errorf("read ingest state %s: %w", m.filePath, err)
	case len(data) == 0:
		return Offsets{}, nil
	}

	offsets := Offsets{}
	if err := json.Unmarshal(data, &offsets); err != nil {
		return nil, fmt.Errorf("decode ingest state %s: %w", m.filePath, err)
	}
	log.Debug().Str("file", m.filePath).Int("files_tracked", len(offsets)).Msg("Loaded ingest offsets")
	return offsets, nil
}

// Save replaces the state file atomically: the offsets are written to a temporary file in the
// same directory, synced and renamed over the old state.
func (m *fileStateManager) Save(offsets Offsets) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(offsets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ingest state: %w", err)
	}

	dir := filepath.Dir(m.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ingest state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(m.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary ingest state: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temporary ingest state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temporary ingest state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temporary ingest state: %w", err)
	}
	if err := os.Rename(tmpPath, m.filePath); err != nil {
		cleanup()
		return fmt.Errorf("replace ingest state %s: %w", m.filePath, err)
	}

	log.Debug().Str("file", m.filePath).Int("files_tracked", len(offsets)).Msg("Saved ingest offsets")
	return nil
}

func (m *fileStateManager) Path() string {
	return m.filePath
}
