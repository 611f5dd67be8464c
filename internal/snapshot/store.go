package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store is the JSON cache file shared between workflow runs. Every Save
// replaces the whole file.
type Store struct {
	Path   string
	Logger *zap.Logger
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

func (s *Store) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Save writes records as an indented JSON array. The file is written next
// to its destination and renamed into place so readers never see a partial
// document.
func (s *Store) Save(records []Snapshot) error {
	if records == nil {
		records = []Snapshot{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode snapshots: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp cache: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// Load returns the cached records ordered oldest to newest. A missing file
// is an empty cache. A corrupt file also yields an empty cache, with the
// decode error returned for logging only.
func (s *Store) Load() ([]Snapshot, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return []Snapshot{}, fmt.Errorf("read cache: %w", err)
	}
	out, d, err := decode(b)
	if err != nil {
		return []Snapshot{}, fmt.Errorf("decode cache %s: %w", s.Path, err)
	}
	switch {
	case d.migrated:
		s.logger().Info("migrated legacy snapshot cache", zap.String("path", s.Path), zap.Int("records", len(out)))
	case d.resorted:
		s.logger().Warn("snapshot cache was out of order, re-sorted", zap.String("path", s.Path), zap.Int("records", len(out)))
	}
	return out, nil
}
