package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"PriceSentinel/internal/model"
)

// FileStore persists the price baseline as a JSON object of item name to cents.
type FileStore struct {
	filePath string
}

// NewFileStore creates a store backed by the given file. The file need not exist yet.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

// Path returns the baseline file location.
func (s *FileStore) Path() string { return s.filePath }

// Load reads the baseline. A missing or unreadable file yields an empty snapshot so that
// a corrupt baseline never halts monitoring; prices are simply re-learned.
func (s *FileStore) Load() model.Snapshot {
	snap, err := ReadSnapshot(s.filePath)
	if err != nil {
		log.Printf("[WARN] baseline %s unreadable, starting empty: %v", s.filePath, err)
		return model.Snapshot{}
	}
	return snap
}

// Save overwrites the baseline. The data is written to a temp file in the same directory
// and renamed over the target so an interrupted write never leaves a truncated baseline.
func (s *FileStore) Save(snap model.Snapshot) error {
	if snap == nil {
		snap = model.Snapshot{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp baseline: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp baseline: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp baseline: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod temp baseline: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		return fmt.Errorf("replace baseline: %w", err)
	}
	return nil
}

// ReadSnapshot reads a baseline file. Returns an empty snapshot if the file doesn't exist.
func ReadSnapshot(filePath string) (model.Snapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Snapshot{}, nil
		}
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode baseline: %w", err)
	}
	if snap == nil {
		// a literal "null" document
		snap = model.Snapshot{}
	}
	for name, price := range snap {
		if price < 0 {
			return nil, fmt.Errorf("decode baseline: negative price %d for %q", price, name)
		}
	}
	return snap, nil
}

// Merge returns the right-biased union of old and fresh: every price in fresh wins,
// items only present in old keep their last known price. Neither input is modified.
func Merge(old, fresh model.Snapshot) model.Snapshot {
	out := make(model.Snapshot, len(old)+len(fresh))
	for k, v := range old {
		out[k] = v
	}
	for k, v := range fresh {
		out[k] = v
	}
	return out
}
