// Package storage persists fetched bodies to per-story directories and
// derives deterministic, collision-tolerant filenames from source URLs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is the persistence capability the download pipeline writes through.
type Store interface {
	EnsureDir(path string) error
	WriteFile(path string, data []byte) error
}

// DiskStore implements Store on the local filesystem, confined to a root
// directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory and verifies it is writable.
func NewDiskStore(root string) (*DiskStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("output root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output root %s: %w", root, err)
	}
	probe := filepath.Join(root, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("output root is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}
	return &DiskStore{root: filepath.Clean(root)}, nil
}

// Root returns the store's root directory.
func (s *DiskStore) Root() string {
	return s.root
}

// EnsureDir creates the directory (and parents) under the root.
func (s *DiskStore) EnsureDir(path string) error {
	full, err := s.confine(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o750); err != nil {
		return fmt.Errorf("create dir %s: %w", full, err)
	}
	return nil
}

// WriteFile writes data to a file under the root, creating parent
// directories as needed.
func (s *DiskStore) WriteFile(path string, data []byte) error {
	full, err := s.confine(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", full, err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("write file %s: %w", full, err)
	}
	return nil
}

// confine resolves path against the root and rejects traversal outside it.
func (s *DiskStore) confine(path string) (string, error) {
	full := filepath.Clean(filepath.Join(s.root, path))
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes output root", path)
	}
	return full, nil
}
