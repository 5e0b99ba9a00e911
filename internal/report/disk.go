package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DiskStore writes Records as JSON files to a directory. Without an
// explicit directory a temp directory is created lazily on first use.
type DiskStore struct {
	mu  sync.Mutex
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir, or at a fresh temp
// directory when dir is empty.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Save writes rec as <dir>/<id>.json.
func (s *DiskStore) Save(rec *Record) error {
	path, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling run %s: %w", rec.ID, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing run %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads the record for runID.
func (s *DiskStore) Load(runID string) (*Record, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling run %s: %w", runID, err)
	}
	return &rec, nil
}

// path maps a run ID to its file. IDs must be UUIDs so they cannot
// escape the directory.
func (s *DiskStore) path(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("%w: invalid run id %q", ErrNotFound, runID)
	}
	dir, err := s.ensureDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, runID+".json"), nil
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o700); err != nil {
			return "", fmt.Errorf("creating run directory: %w", err)
		}
		return s.dir, nil
	}
	dir, err := os.MkdirTemp("", "gitrun-runs-*")
	if err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	s.dir = dir
	return dir, nil
}
