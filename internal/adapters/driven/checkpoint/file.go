// Package checkpoint stores the ingestion checkpoint as a JSON file.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CheckpointStore = (*FileStore)(nil)

// DefaultRelPath is the checkpoint location relative to the XDG state dir.
const DefaultRelPath = "cfr-ingest/checkpoint.json"

// DefaultPath returns $XDG_STATE_HOME/cfr-ingest/checkpoint.json.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, DefaultRelPath)
}

// FileStore keeps one checkpoint document at a fixed path. Saves go
// through a temporary file and a rename so readers never see a torn write.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path, or at DefaultPath when empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	return &FileStore{path: path}
}

// Path returns the checkpoint file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns nil without error when the file does not exist.
func (s *FileStore) Load(ctx context.Context) (*domain.Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", s.path, err)
	}
	return &cp, nil
}

// Save overwrites the checkpoint file.
func (s *FileStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Clear deletes the checkpoint file. A missing file is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint %s: %w", s.path, err)
	}
	return nil
}
